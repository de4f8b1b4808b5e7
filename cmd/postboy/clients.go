package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/postboy/postboy/pkg/collections"
	"github.com/postboy/postboy/pkg/executor"
)

// newExecutor builds an executor from proxy_url, routing.direct_origins and
// http.timeout.
func newExecutor() (*executor.Executor, error) {
	proxyURL := viper.GetString("proxy_url")
	if proxyURL == "" {
		return nil, fmt.Errorf("proxy_url is not configured")
	}

	opts := []executor.Option{
		executor.WithTimeout(viper.GetDuration("http.timeout")),
		executor.WithLogger(logger),
	}
	if origins := viper.GetStringSlice("routing.direct_origins"); len(origins) > 0 {
		policy, err := executor.NewOriginAllowList(origins...)
		if err != nil {
			return nil, fmt.Errorf("routing.direct_origins: %w", err)
		}
		opts = append(opts, executor.WithRouting(policy))
	}
	return executor.New(proxyURL, opts...), nil
}

func newStoreClient() (*collections.Client, error) {
	storeURL := viper.GetString("store_url")
	if storeURL == "" {
		return nil, fmt.Errorf("store_url is not configured")
	}
	return collections.New(storeURL, viper.GetString("api_key"),
		collections.WithTimeout(viper.GetDuration("http.timeout")),
		collections.WithLogger(logger),
	), nil
}
