package shell

import "errors"

// ErrWindowUnsupported is returned by OpenWindow in builds without the
// webview tag.
var ErrWindowUnsupported = errors.New("native window support is not built in; rebuild with -tags webview")

type WindowOptions struct {
	Title  string
	Width  int
	Height int
	Debug  bool
}
