package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/postboy/postboy/pkg/compose"
	"github.com/postboy/postboy/pkg/core"
	"github.com/postboy/postboy/pkg/format"
	"github.com/postboy/postboy/pkg/tui"
)

// viewFlags control how a response is shown.
type viewFlags struct {
	interactive bool
	tab         string
	copy        bool
}

func (v *viewFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.BoolVarP(&v.interactive, "interactive", "i", false, "open the response viewer")
	fl.StringVar(&v.tab, "tab", string(core.TabBody), "response tab to print: body, headers, raw, preview")
	fl.BoolVar(&v.copy, "copy", false, "copy the formatted body to the clipboard")
}

func (v *viewFlags) responseTab() (core.ResponseTab, error) {
	for _, t := range core.ResponseTabs {
		if string(t) == strings.ToLower(v.tab) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tab %q", v.tab)
}

// sendAndShow sends c's request and prints or views the response.
func sendAndShow(ctx context.Context, out io.Writer, c *compose.Composer, exec compose.Executor, v viewFlags) error {
	tab, err := v.responseTab()
	if err != nil {
		return err
	}
	c.SwitchTab(tab, true)

	if v.interactive {
		return tui.Run(ctx, c, exec)
	}

	resp := c.Send(ctx, exec)
	if resp == nil {
		return fmt.Errorf("a URL is required")
	}

	renderer, _ := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	fmt.Fprintln(out, tui.StatusLine(resp))
	fmt.Fprintln(out)
	fmt.Fprintln(out, tui.RenderTab(resp, tab, renderer))

	if v.copy {
		if err := clipboard.WriteAll(format.Pretty(format.Response(resp))); err != nil {
			logger.Warn().Err(err).Msg("failed to copy response body")
		} else {
			fmt.Fprintln(os.Stderr, "Body copied to clipboard")
		}
	}

	if resp.Failed() {
		return fmt.Errorf("request failed")
	}
	return nil
}
