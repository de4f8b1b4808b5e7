package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/postboy/postboy/pkg/auth"
	"github.com/postboy/postboy/pkg/compose"
	"github.com/postboy/postboy/pkg/core"
	"github.com/postboy/postboy/pkg/storage"
)

// requestFlags are the composer edits shared by send, save, update and run.
type requestFlags struct {
	headers    []string
	query      []string
	raw        string
	form       []string
	urlencoded []string
	binary     string
	env        string
	bearer     string
	basic      string
	oauth2     bool
	oauth2Pass string
}

func (f *requestFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringArrayVarP(&f.headers, "header", "H", nil, `request header "Key: Value" (repeatable)`)
	fl.StringArrayVarP(&f.query, "query", "q", nil, "query parameter key=value (repeatable)")
	fl.StringVar(&f.raw, "raw", "", "raw body")
	fl.StringArrayVar(&f.form, "form", nil, "multipart form field key=value (repeatable)")
	fl.StringArrayVar(&f.urlencoded, "urlencoded", nil, "urlencoded form field key=value (repeatable)")
	fl.StringVar(&f.binary, "binary", "", "binary body, @file reads a file")
	fl.StringVarP(&f.env, "env", "e", "", "environment used for {{VAR}} substitution")
	fl.StringVar(&f.bearer, "bearer", "", "bearer token for the Authorization header")
	fl.StringVar(&f.basic, "basic", "", "basic auth credentials user:pass")
	fl.BoolVar(&f.oauth2, "oauth2", false, "fetch a client_credentials token using auth.oauth2 settings")
	fl.StringVar(&f.oauth2Pass, "oauth2-password", "", "fetch a password grant token for user:pass using auth.oauth2 settings")
	cmd.MarkFlagsMutuallyExclusive("raw", "form", "urlencoded", "binary")
	cmd.MarkFlagsMutuallyExclusive("bearer", "basic", "oauth2", "oauth2-password")
}

// methodAndURL reads "[METHOD] URL" positional arguments.
func methodAndURL(args []string) (string, string) {
	switch len(args) {
	case 0:
		return "", ""
	case 1:
		return "", args[0]
	default:
		return args[0], args[1]
	}
}

// apply edits c with the flags. Method and url are only set when non-empty.
func (f *requestFlags) apply(ctx context.Context, c *compose.Composer, method, url string) error {
	if method != "" {
		c.SetMethod(method)
	}
	if url != "" {
		c.SetURL(url)
	}

	for _, h := range f.headers {
		key, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return fmt.Errorf(`invalid header %q (expected "Key: Value")`, h)
		}
		c.SetHeader(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	for _, q := range f.query {
		key, value, _ := strings.Cut(q, "=")
		c.AddQueryParam(key, value)
	}

	body, err := f.body()
	if err != nil {
		return err
	}
	if body != nil {
		c.SetBody(body)
	}

	if f.env != "" {
		env, err := storage.LoadNamedEnvironment(core.FolderName, f.env)
		if err != nil {
			return fmt.Errorf("failed to load environment '%s': %w", f.env, err)
		}
		c.SetEnv(env)
	}

	authHeader, err := f.authorization(ctx)
	if err != nil {
		return err
	}
	if authHeader != nil {
		c.SetHeader(authHeader.Key, authHeader.Value)
	}
	return nil
}

func (f *requestFlags) body() (*core.Body, error) {
	switch {
	case f.raw != "":
		return &core.Body{Type: core.BodyRaw, Raw: f.raw}, nil
	case len(f.form) > 0:
		return &core.Body{Type: core.BodyFormData, Form: pairs(f.form)}, nil
	case len(f.urlencoded) > 0:
		return &core.Body{Type: core.BodyURLEncoded, Form: pairs(f.urlencoded)}, nil
	case f.binary != "":
		data := f.binary
		if path, ok := strings.CutPrefix(f.binary, "@"); ok {
			b, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("reading binary body: %w", err)
			}
			data = string(b)
		}
		return &core.Body{Type: core.BodyBinary, Raw: data}, nil
	}
	return nil, nil
}

func (f *requestFlags) authorization(ctx context.Context) (*core.KeyValuePair, error) {
	var (
		p   core.KeyValuePair
		err error
	)
	switch {
	case f.bearer != "":
		p, err = auth.Bearer(f.bearer)
	case f.basic != "":
		var user, pass string
		if user, pass, err = auth.ParseBasic(f.basic); err == nil {
			p, err = auth.Basic(user, pass)
		}
	case f.oauth2:
		var cfg auth.ClientCredentialsConfig
		if err = viper.UnmarshalKey("auth.oauth2", &cfg); err == nil {
			p, err = auth.ClientCredentials(ctx, cfg)
		}
	case f.oauth2Pass != "":
		var (
			cfg        auth.ClientCredentialsConfig
			user, pass string
		)
		if user, pass, err = auth.ParseBasic(f.oauth2Pass); err != nil {
			break
		}
		if err = viper.UnmarshalKey("auth.oauth2", &cfg); err == nil {
			p, err = auth.Password(ctx, cfg, user, pass)
		}
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func pairs(items []string) []core.KeyValuePair {
	out := make([]core.KeyValuePair, 0, len(items))
	for _, item := range items {
		key, value, _ := strings.Cut(item, "=")
		out = append(out, core.NewPair(key, value))
	}
	return out
}
