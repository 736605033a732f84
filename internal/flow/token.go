package flow

// Token tags an asynchronous request. A completion may only apply its result
// while its token is still the session's current one.
type Token uint64

// tracker hands out monotonically increasing tokens. It is guarded by the
// owning Controller's mutex.
type tracker struct {
	current Token
}

// next supersedes every outstanding token.
func (t *tracker) next() Token {
	t.current++
	return t.current
}

func (t *tracker) isCurrent(tok Token) bool {
	return tok == t.current
}
