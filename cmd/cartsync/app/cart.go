package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/stacklok/cartsync/internal/cartstore"
	"github.com/stacklok/cartsync/internal/logger"
	"github.com/stacklok/cartsync/internal/versions"
)

const cartRequestTimeout = 10 * time.Second

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Inspect the cart of a running agent",
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current cart as a table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		server, err := cmd.Flags().GetString("server")
		if err != nil {
			return fmt.Errorf("failed to read server flag: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cartRequestTimeout)
		defer cancel()

		client := &http.Client{Timeout: cartRequestTimeout}
		warnOnVersionSkew(ctx, client, server)

		var value cartstore.Value
		if err := getJSON(ctx, client, strings.TrimRight(server, "/")+"/v1/cart", &value); err != nil {
			return err
		}
		return renderCart(cmd.OutOrStdout(), value)
	},
}

func init() {
	cartShowCmd.Flags().String("server", "http://localhost:8080", "Base URL of the cart agent")
	cartCmd.AddCommand(cartShowCmd)
}

func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach cart agent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("cart agent returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// warnOnVersionSkew logs when the agent runs a different major version
func warnOnVersionSkew(ctx context.Context, client *http.Client, server string) {
	var remote versions.VersionInfo
	if err := getJSON(ctx, client, strings.TrimRight(server, "/")+"/version", &remote); err != nil {
		logger.Debugf("Could not read agent version: %v", err)
		return
	}
	local := versions.GetVersionInfo().Version
	switch checkVersionSkew(local, remote.Version) {
	case skewMajor:
		logger.Warnf("Agent version %s differs in major version from this client (%s)", remote.Version, local)
	case skewAgentNewer:
		logger.Infof("Agent runs %s, newer than this client (%s)", remote.Version, local)
	case skewNone:
	}
}

type versionSkew int

const (
	skewNone versionSkew = iota
	skewAgentNewer
	skewMajor
)

func checkVersionSkew(local, remote string) versionSkew {
	switch {
	case versions.MajorSkew(local, remote):
		return skewMajor
	case versions.IsNewerVersion(remote, local):
		return skewAgentNewer
	default:
		return skewNone
	}
}

func renderCart(w io.Writer, value cartstore.Value) error {
	status := "synced"
	switch {
	case !value.HasLoadedFromServer:
		status = "loading"
	case value.HasPendingServerUpdates:
		status = "pending"
	}
	fmt.Fprintf(w, "Cart %s (%s)\n", value.CartKey, status)

	table := tablewriter.NewWriter(w)
	table.Header("Product", "Meta", "Cost", "Currency")
	for _, item := range value.Products {
		if err := table.Append([]string{
			item.ProductSlug,
			item.Meta,
			strconv.FormatFloat(item.Cost, 'f', 2, 64),
			item.Currency,
		}); err != nil {
			return fmt.Errorf("failed to render cart item: %w", err)
		}
	}
	table.Footer("", "Total", strconv.FormatFloat(value.TotalCost, 'f', 2, 64), value.Currency)
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render cart: %w", err)
	}

	if value.Coupon != "" {
		applied := "not applied"
		if value.IsCouponApplied {
			applied = "applied"
		}
		fmt.Fprintf(w, "Coupon %s (%s)\n", value.Coupon, applied)
	}
	return nil
}
