package webcore

// Header is one parsed request header line, with its name and value as
// zero-copy views into the connection's read buffer.
type Header struct {
	Name  []byte
	Value []byte
}
