package common

// AuthorizationHeaderName is the HTTP header carrying the session token
// in the form "Bearer <token>".
const AuthorizationHeaderName = "Authorization"

// SessionTokenBytes is the amount of random bytes behind each session id.
const SessionTokenBytes = 32

// DummyPasswordBytes is the length of the random password behind the dummy
// bcrypt hash compared against when a login email is unknown.
const DummyPasswordBytes = 16
