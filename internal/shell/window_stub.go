//go:build !webview

package shell

import "context"

func OpenWindow(ctx context.Context, url string, opts WindowOptions) error {
	return ErrWindowUnsupported
}
