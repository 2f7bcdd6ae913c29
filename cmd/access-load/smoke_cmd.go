package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type smokeOptions struct {
	BaseURL   string
	TenantID  string
	SubjectID string
}

func newSmokeCmd() *cobra.Command {
	var opts smokeOptions

	cmd := &cobra.Command{
		Use:   "smoke --base-url <url> --tenant <uuid> --subject <uuid>",
		Short: "Run a small smoke check against /health and the access API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(opts.BaseURL) == "" {
				return errors.New("--base-url is required")
			}
			if strings.TrimSpace(opts.TenantID) == "" {
				return errors.New("--tenant is required")
			}
			if strings.TrimSpace(opts.SubjectID) == "" {
				return errors.New("--subject is required")
			}

			client := newHTTPClient()
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			if err := healthCheck(ctx, client, opts.BaseURL); err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(opts.BaseURL, "/")+"/access/api/graph-filter", nil)
			if err != nil {
				return err
			}
			req.Header.Set("X-Tenant-ID", opts.TenantID)
			req.Header.Set("X-Subject-ID", opts.SubjectID)
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			_ = resp.Body.Close()
			if resp.StatusCode/100 != 2 {
				return fmt.Errorf("access smoke failed: status=%d", resp.StatusCode)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "http://localhost:3200", "server base URL")
	cmd.Flags().StringVar(&opts.TenantID, "tenant", "", "tenant UUID")
	cmd.Flags().StringVar(&opts.SubjectID, "subject", "", "acting subject UUID")

	return cmd
}
