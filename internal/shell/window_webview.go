//go:build webview

package shell

import (
	"context"
	"strings"

	webview "github.com/webview/webview_go"
)

// OpenWindow shows url in a native window and blocks until it is closed or
// ctx is cancelled.
func OpenWindow(ctx context.Context, url string, opts WindowOptions) error {
	w := webview.New(opts.Debug)
	defer w.Destroy()
	w.SetTitle(strings.TrimSpace(opts.Title))
	w.SetSize(opts.Width, opts.Height, webview.HintNone)
	w.Navigate(url)

	closed := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
			w.Terminate()
		case <-closed:
		}
	}()

	w.Run()
	close(closed)
	<-stopped
	return nil
}
