//go:build integration

package table

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/JonMunkholm/colleges/internal/config"
)

const createColleges = `CREATE TABLE colleges (
	id      uuid PRIMARY KEY,
	name    text NOT NULL,
	country text NOT NULL,
	domain  text
)`

type PostgresSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	cfg       config.TableConfig
	client    *Postgres
}

func TestPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("colleges"),
		tcpostgres.WithUsername("loader"),
		tcpostgres.WithPassword("loader"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err, "start postgres container")
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.cfg = config.TableConfig{
		Backend:     config.BackendPostgres,
		DatabaseURL: dsn,
		Name:        "colleges",
		Timeout:     30 * time.Second,
		MaxConns:    2,
	}

	pool, err := pgxpool.New(ctx, dsn)
	s.Require().NoError(err)
	defer pool.Close()
	_, err = pool.Exec(ctx, createColleges)
	s.Require().NoError(err)

	client, err := OpenPostgres(ctx, s.cfg)
	s.Require().NoError(err)
	s.client = client
}

func (s *PostgresSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
	if err := testcontainers.TerminateContainer(s.container); err != nil {
		s.T().Logf("terminate postgres container: %v", err)
	}
}

func (s *PostgresSuite) SetupTest() {
	_, err := s.client.Delete(context.Background(), AllRows)
	s.Require().NoError(err)
}

func (s *PostgresSuite) TestInsertAndCount() {
	ctx := context.Background()
	rows := []Row{
		newRow("Stanford University", "United States", strPtr("stanford")),
		newRow("Unknown College", "Nowhere", nil),
	}

	resp, err := s.client.Insert(ctx, rows...)
	s.Require().NoError(err)
	s.Equal(rows, resp.Data)

	resp, err = s.client.Select(ctx, "id", CountExact)
	s.Require().NoError(err)
	s.Require().NotNil(resp.Count)
	s.Equal(int64(2), *resp.Count)
}

func (s *PostgresSuite) TestSelectColumns() {
	ctx := context.Background()
	row := newRow("A", "X", strPtr("a"))
	_, err := s.client.Insert(ctx, row)
	s.Require().NoError(err)

	resp, err := s.client.Select(ctx, "id, name", CountNone)
	s.Require().NoError(err)
	s.Require().Len(resp.Data, 1)
	s.Equal(row.ID, resp.Data[0].ID)
	s.Equal("A", resp.Data[0].Name)
	s.Empty(resp.Data[0].Country)
	s.Nil(resp.Count)
}

func (s *PostgresSuite) TestPurgeRemovesEverything() {
	ctx := context.Background()
	_, err := s.client.Insert(ctx, newRow("A", "X", nil), newRow("B", "Y", nil))
	s.Require().NoError(err)

	resp, err := s.client.Delete(ctx, AllRows)
	s.Require().NoError(err)
	s.Len(resp.Data, 2)

	resp, err = s.client.Select(ctx, "id", CountExact)
	s.Require().NoError(err)
	s.Equal(int64(0), *resp.Count)
}

func (s *PostgresSuite) TestDuplicateIDClassified() {
	ctx := context.Background()
	row := newRow("A", "X", nil)
	_, err := s.client.Insert(ctx, row)
	s.Require().NoError(err)

	_, err = s.client.Insert(ctx, row)
	s.Require().Error(err)
	s.Equal("DB001", Classify(err).Code)
}

func (s *PostgresSuite) TestNotNullClassified() {
	// An empty Go string is not NULL, so go through the pool directly.
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, s.cfg.DatabaseURL)
	s.Require().NoError(err)
	defer pool.Close()

	_, err = pool.Exec(ctx, "INSERT INTO colleges (id, name, country) VALUES ($1, $2, NULL)", uuid.New(), "A")
	s.Require().Error(err)
	s.Equal("VAL001", Classify(err).Code)
}

func (s *PostgresSuite) TestMissingTableClassified() {
	client := NewPostgres(s.client.db, "universities")
	_, err := client.Select(context.Background(), "id", CountExact)
	s.Require().Error(err)
	s.Equal("TBL001", Classify(err).Code)
}

func (s *PostgresSuite) TestOpenThroughConfig() {
	c, err := Open(context.Background(), s.cfg)
	s.Require().NoError(err)
	defer c.Close()
	s.IsType(&Postgres{}, c)
}
