package serializer

// Response is the uniform JSON envelope for every API reply.
type Response struct {
	Code  int    `json:"code"`
	Data  any    `json:"data,omitempty"`
	Msg   string `json:"msg,omitempty"`
	Error string `json:"error,omitempty"`
}

const (
	CodeOK          = 0
	CodeParamErr    = 40001
	CodeAuthErr     = 40101
	CodeForbidden   = 40301
	CodeNotFound    = 40401
	CodeConflict    = 40901
	CodeDBErr       = 50001
	CodeConfigErr   = 50002
	CodeUpstreamErr = 50003
)

func errResponse(code int, msg, fallback string, err error) Response {
	if msg == "" {
		msg = fallback
	}
	r := Response{Code: code, Msg: msg}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// ParamErr reports invalid or missing caller input.
func ParamErr(msg string, err error) Response {
	return errResponse(CodeParamErr, msg, "invalid request parameters", err)
}

// AuthErr reports a missing or unusable credential on a protected route.
func AuthErr(msg string) Response {
	return errResponse(CodeAuthErr, msg, "authentication required", nil)
}

// ForbiddenErr reports a rejected caller. No detail about the expected
// credential is included.
func ForbiddenErr(msg string) Response {
	return errResponse(CodeForbidden, msg, "forbidden", nil)
}

func NotFoundErr(msg string) Response {
	return errResponse(CodeNotFound, msg, "resource not found", nil)
}

func ConflictErr(msg string) Response {
	return errResponse(CodeConflict, msg, "conflict", nil)
}

// DBErr reports a storage failure.
func DBErr(msg string, err error) Response {
	return errResponse(CodeDBErr, msg, "database error", err)
}

// ConfigErr reports a missing credential or other operator misconfiguration,
// kept distinct from upstream failures so the two 5xx classes are
// distinguishable.
func ConfigErr(msg string, err error) Response {
	return errResponse(CodeConfigErr, msg, "service misconfigured", err)
}

// UpstreamErr reports a failure of an external collaborator, passing the
// upstream detail through where it is not sensitive.
func UpstreamErr(msg string, err error) Response {
	return errResponse(CodeUpstreamErr, msg, "upstream service error", err)
}
