package table

// errors.go maps table errors to stable codes quoted in row-error logs.
//
//	DB001   duplicate key          a row with this id already exists
//	DB002   unique constraint      a unique column already holds the value
//	DB003   foreign key            a referenced row does not exist
//	DB004   connection refused     the database or endpoint is unreachable
//	DB005   connection reset       the connection dropped mid-request
//	DB006   timeout                the request or query timed out
//	DB007   deadlock               conflicting concurrent operations
//	VAL001  not null               a required column was empty
//	AUTH001 unauthorized           the credential was rejected
//	TBL001  table not found        the table does not exist or is not exposed
//	RATE001 rate limited           too many requests
//	REQ001  rejected request       any other 4xx response
//	REQ002  cancelled              the run was interrupted
//	SRV001  server error           any other 5xx response
//	ERR000  unknown                nothing above matched
//
// Typed errors are checked first (context errors, *pgconn.PgError, then
// *APIError by PostgREST code and HTTP status); the message patterns below
// are the fallback. The first match wins.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorInfo is the classification of a table error.
type ErrorInfo struct {
	Code    string
	Message string
}

var (
	infoDuplicate   = ErrorInfo{"DB001", "A row with this id already exists"}
	infoUnique      = ErrorInfo{"DB002", "A unique value already exists"}
	infoForeignKey  = ErrorInfo{"DB003", "Referenced row does not exist"}
	infoRefused     = ErrorInfo{"DB004", "Unable to connect to the table"}
	infoReset       = ErrorInfo{"DB005", "Connection was interrupted"}
	infoTimeout     = ErrorInfo{"DB006", "Operation timed out"}
	infoDeadlock    = ErrorInfo{"DB007", "Database was busy with conflicting operations"}
	infoNotNull     = ErrorInfo{"VAL001", "A required column is empty"}
	infoAuth        = ErrorInfo{"AUTH001", "Credential was rejected"}
	infoNoTable     = ErrorInfo{"TBL001", "Table does not exist"}
	infoRateLimited = ErrorInfo{"RATE001", "Too many requests"}
	infoRejected    = ErrorInfo{"REQ001", "Request was rejected"}
	infoCancelled   = ErrorInfo{"REQ002", "Run was interrupted"}
	infoServer      = ErrorInfo{"SRV001", "Server error"}
	infoUnknown     = ErrorInfo{"ERR000", "Unexpected error"}
)

// sqlStates maps PostgreSQL error codes, which PostgREST also forwards in
// its error body, to classifications.
var sqlStates = map[string]ErrorInfo{
	"23505":    infoDuplicate,
	"23503":    infoForeignKey,
	"23502":    infoNotNull,
	"40P01":    infoDeadlock,
	"42P01":    infoNoTable,
	"42501":    infoAuth,
	"28P01":    infoAuth,
	"57014":    infoTimeout,
	"PGRST205": infoNoTable,
	"PGRST301": infoAuth,
	"PGRST302": infoAuth,
}

type errorPattern struct {
	pattern string
	info    ErrorInfo
}

// errorPatterns are matched case-insensitively with strings.Contains.
// More specific patterns come first.
var errorPatterns = []errorPattern{
	{"duplicate key", infoDuplicate},
	{"unique constraint", infoUnique},
	{"violates unique", infoUnique},
	{"foreign key", infoForeignKey},
	{"not-null constraint", infoNotNull},
	{"connection refused", infoRefused},
	{"connection reset", infoReset},
	{"timeout", infoTimeout},
	{"deadline exceeded", infoTimeout},
	{"deadlock", infoDeadlock},
	{"does not exist", infoNoTable},
	{"invalid api key", infoAuth},
}

// Classify maps err to an ErrorInfo. A nil error yields the zero value.
func Classify(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{}
	}

	switch {
	case errors.Is(err, context.Canceled):
		return infoCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return infoTimeout
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if info, ok := sqlStates[pgErr.Code]; ok {
			return info
		}
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if info, ok := sqlStates[apiErr.Code]; ok {
			return info
		}
		if info, ok := classifyStatus(apiErr.StatusCode); ok {
			return info
		}
	}

	lower := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(lower, ep.pattern) {
			return ep.info
		}
	}

	return infoUnknown
}

func classifyStatus(status int) (ErrorInfo, bool) {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return infoAuth, true
	case status == http.StatusNotFound:
		return infoNoTable, true
	case status == http.StatusConflict:
		return infoDuplicate, true
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return infoTimeout, true
	case status == http.StatusTooManyRequests:
		return infoRateLimited, true
	case status >= 500:
		return infoServer, true
	case status >= 400:
		return infoRejected, true
	}
	return ErrorInfo{}, false
}
