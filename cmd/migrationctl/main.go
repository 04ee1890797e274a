package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/eden-redis/loadengine/internal/coverage"
	"github.com/eden-redis/loadengine/internal/migration"
	"github.com/eden-redis/loadengine/internal/migrationapi"
	"github.com/eden-redis/loadengine/internal/tui"
	"github.com/eden-redis/loadengine/internal/wsmirror"
)

// defaultSourceHost is the fallback host when a positional arg is a bare
// port.
const defaultSourceHost = "172.24.2.218"

func resolveAddr(arg, fallbackHost string) string {
	if arg == "" {
		return fallbackHost + ":6379"
	}
	if strings.Contains(arg, ":") {
		return arg
	}
	if _, err := strconv.Atoi(arg); err == nil {
		return fallbackHost + ":" + arg
	}
	return arg
}

func main() {
	args := os.Args[1:]
	var source, dest string
	if len(args) > 0 {
		source = args[0]
	}
	if len(args) > 1 {
		dest = args[1]
	}
	apiEndpoint := "http://localhost:8000"
	if len(args) > 2 {
		apiEndpoint = args[2]
	}

	sourceAddr := resolveAddr(source, defaultSourceHost)
	destAddr := resolveAddr(dest, defaultSourceHost)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sourceClient := redis.NewClient(&redis.Options{Addr: sourceAddr})
	destClient := redis.NewClient(&redis.Options{Addr: destAddr})
	defer sourceClient.Close()
	defer destClient.Close()

	api := migrationapi.New(apiEndpoint + "/api/v1")
	ctrl := migration.New(migration.ModeCanary)
	hub := wsmirror.New()

	var migrationID, interlayID string
	forceCoverage := make(chan struct{}, 1)

	cmds := tui.Commands{
		Setup: func() { runSetup(ctx, api, ctrl, sourceAddr, destAddr, &migrationID, &interlayID) },
		Migrate: func() {
			if !ctrl.CanMigrate() {
				return
			}
			if _, err := api.Migrate(ctx, migrationID); err != nil {
				log.Printf("migrate: %v", err)
				return
			}
			go ctrl.Poll(ctx, func(ctx context.Context) (migration.Status, error) {
				return pollStatus(ctx, api, migrationID)
			})
		},
		Complete: func() {
			if !ctrl.CanComplete() {
				return
			}
			if _, err := api.Complete(ctx, migrationID, map[string]string{"reason": "operator requested"}); err != nil {
				log.Printf("complete: %v", err)
			}
		},
		Cancel: func() {
			if !ctrl.CanCancel() {
				return
			}
			if _, err := api.Cancel(ctx, migrationID, map[string]string{"reason": "operator requested"}); err != nil {
				log.Printf("cancel: %v", err)
			}
		},
		Rollback: func() {
			if !ctrl.CanRollback() {
				return
			}
			_, err := api.Rollback(ctx, migrationID, interlayID, map[string]interface{}{
				"reason": "operator requested", "force": false,
				"preserve_config": true, "overwrite_on_reverse": false,
			})
			if err != nil {
				log.Printf("rollback: %v", err)
				return
			}
			go ctrl.Poll(ctx, func(ctx context.Context) (migration.Status, error) {
				return pollStatus(ctx, api, migrationID)
			})
		},
		Refresh: func() {
			if s, err := pollStatus(ctx, api, migrationID); err == nil {
				ctrl.SetStatus(s)
			} else {
				log.Printf("refresh: %v", err)
			}
		},
		AdjustTraffic: func(delta int) {
			if !ctrl.CanUpdateTraffic() {
				return
			}
			prev := ctrl.ReadPercent()
			next := ctrl.AdjustReadPercent(delta)
			if next == prev {
				return
			}
			if _, err := api.UpdateTraffic(ctx, migrationID, map[string]interface{}{
				"read_percentage": next, "reason": "operator adjustment",
			}); err != nil {
				log.Printf("adjust traffic: %v", err)
				ctrl.SetReadPercent(prev)
			}
		},
		ForceCoverage: func() {
			select {
			case forceCoverage <- struct{}{}:
			default:
			}
		},
		Quit: func() { stop() },
	}

	app := tui.New(ctrl, cmds)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.Run(gctx) })
	g.Go(func() error { hub.Run(gctx); return nil })
	g.Go(func() error { return runCoverageLoop(gctx, app, sourceClient, destClient, forceCoverage) })
	g.Go(func() error { return runDebugMirror(gctx, ctrl, hub) })
	g.Go(func() error { return serveWSMirror(gctx, hub, ":3001") })

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Fatalf("migrationctl: %v", err)
	}
}

// setupJSON unmarshals resp's body into a map, tolerating an empty or
// non-JSON body (some steps, e.g. conflict resolution GETs, return bodies
// this client only reads selected fields from).
func setupJSON(resp *resty.Response) map[string]interface{} {
	out := map[string]interface{}{}
	if resp == nil {
		return out
	}
	_ = json.Unmarshal(resp.Body(), &out)
	return out
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// runStep executes one named setup step's request, advancing ctrl on 2xx or
// 409 (resolving the existing resource via the provided getOnConflict, if
// any) and terminating setup on any other failure.
func runStep(ctx context.Context, ctrl *migration.Controller, name string, call func() (*resty.Response, error), getOnConflict func() (*resty.Response, error)) (map[string]interface{}, bool) {
	ctrl.BeginStep(name)
	resp, err := call()
	if err != nil && resp == nil {
		ctrl.FinishStep(name, "failed", err.Error())
		ctrl.FailSetup(err.Error())
		return nil, false
	}
	if migrationapi.IsConflict(resp) {
		ctrl.FinishStep(name, "skipped", "already exists")
		if getOnConflict != nil {
			if getResp, gerr := getOnConflict(); gerr == nil {
				ctrl.AdvanceSetup(true)
				return setupJSON(getResp), true
			}
		}
		ctrl.AdvanceSetup(true)
		return setupJSON(resp), true
	}
	if resp == nil || resp.StatusCode() >= 300 {
		msg := err
		if msg == nil {
			msg = fmt.Errorf("migration api: unexpected status %d: %s", resp.StatusCode(), string(resp.Body()))
		}
		ctrl.FinishStep(name, "failed", msg.Error())
		ctrl.FailSetup(msg.Error())
		return nil, false
	}
	ctrl.FinishStep(name, "success", "")
	ctrl.AdvanceSetup(false)
	return setupJSON(resp), true
}

// runSetup drives the linear setup sequence: create org, log in, create
// both endpoints, create the interlay, create the migration, attach the
// interlay, then mark ready. Each step's 409 is resolved as idempotent
// success.
func runSetup(ctx context.Context, api *migrationapi.Client, ctrl *migration.Controller, sourceAddr, destAddr string, migrationIDOut, interlayIDOut *string) {
	state, _ := ctrl.SetupState()
	if state == migration.Ready || state == migration.Failed {
		return
	}

	orgID := "demo-org"
	body, ok := runStep(ctx, ctrl, "create_organization", func() (*resty.Response, error) {
		return api.NewOrganization(ctx, map[string]interface{}{
			"id":          orgID,
			"description": "load-engine migration demo",
			"super_admins": []map[string]string{
				{"username": "admin", "password": "admin", "description": "setup bootstrap admin"},
			},
		})
	}, nil)
	if !ok {
		return
	}
	if id := stringField(body, "id"); id != "" {
		orgID = id
	}

	body, ok = runStep(ctx, ctrl, "login", func() (*resty.Response, error) {
		return api.Login(ctx, "admin", "admin")
	}, nil)
	if !ok {
		return
	}
	token := stringField(body, "token")
	api.SetAuth(token, orgID)

	_, ok = runStep(ctx, ctrl, "create_source_endpoint", func() (*resty.Response, error) {
		return api.CreateEndpoint(ctx, map[string]interface{}{
			"endpoint": "source", "kind": "redis",
			"config":      map[string]interface{}{"write_conn": addrConfig(sourceAddr)},
			"description": "migration source",
		})
	}, nil)
	if !ok {
		return
	}

	body, ok = runStep(ctx, ctrl, "create_dest_endpoint", func() (*resty.Response, error) {
		return api.CreateEndpoint(ctx, map[string]interface{}{
			"endpoint": "dest", "kind": "redis",
			"config":      map[string]interface{}{"write_conn": addrConfig(destAddr)},
			"description": "migration destination",
		})
	}, nil)
	if !ok {
		return
	}
	destEndpoint := stringField(body, "id")

	body, ok = runStep(ctx, ctrl, "create_interlay", func() (*resty.Response, error) {
		return api.CreateInterlay(ctx, map[string]interface{}{
			"id": "interlay-1", "endpoint": destEndpoint, "port": 6380,
			"settings": map[string]interface{}{}, "tls": false,
		})
	}, nil)
	if !ok {
		return
	}
	interlayID := stringField(body, "id")

	migrationID := "migration-1"
	body, ok = runStep(ctx, ctrl, "create_migration", func() (*resty.Response, error) {
		return api.CreateMigration(ctx, migrationStrategyBody(migrationID, ctrl))
	}, nil)
	if !ok {
		return
	}
	if id := stringField(body, "id"); id != "" {
		migrationID = id
	}

	_, ok = runStep(ctx, ctrl, "attach_interlay", func() (*resty.Response, error) {
		return api.AttachInterlay(ctx, migrationID, interlayID, map[string]interface{}{
			"migration_data": map[string]interface{}{"Scan": map[string]interface{}{"replace": "None"}},
			"migration_rules": map[string]interface{}{
				"traffic":    map[string]int{"read": 0, "write": 100},
				"error":      "DoNothing",
				"rollback":   "Ignore",
				"completion": "Manual",
			},
		})
	}, nil)
	if !ok {
		return
	}

	*migrationIDOut = migrationID
	*interlayIDOut = interlayID
	ctrl.SetReady(interlayID)
}

func addrConfig(addr string) map[string]interface{} {
	host, port := addr, "6379"
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		host, port = addr[:i], addr[i+1:]
	}
	return map[string]interface{}{"host": host, "port": port, "tls": false}
}

func migrationStrategyBody(id string, ctrl *migration.Controller) map[string]interface{} {
	if ctrl.Mode() == migration.ModeCanary {
		return map[string]interface{}{
			"id": id, "description": "canary migration",
			"strategy": map[string]interface{}{
				"type": "canary", "read_percentage": 0,
				"write_mode": map[string]interface{}{"mode": "dual_write", "policy": "best_effort"},
			},
		}
	}
	return map[string]interface{}{
		"id": id, "description": "big bang migration",
		"strategy": map[string]interface{}{"type": "big_bang", "durability": true},
	}
}

// statusResponse is the subset of the verbose GET .../migrations/{id}
// body the poller needs.
type statusResponse struct {
	Status string `json:"status"`
}

func pollStatus(ctx context.Context, api *migrationapi.Client, migrationID string) (migration.Status, error) {
	resp, err := api.Status(ctx, migrationID)
	if err != nil {
		return "", err
	}
	var parsed statusResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("migration api: decoding status response: %w", err)
	}
	if parsed.Status == "" {
		return "", fmt.Errorf("migration api: status response missing status field")
	}
	return migration.Status(parsed.Status), nil
}

func runCoverageLoop(ctx context.Context, app *tui.App, source, dest *redis.Client, force <-chan struct{}) error {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	sample := func() {
		reports, err := coverage.Sample(ctx, []string{"source", "dest"}, []*redis.Client{source, dest})
		if err != nil {
			log.Printf("coverage: %v", err)
			return
		}
		app.Refresh(reports)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			sample()
		case <-force:
			sample()
		}
	}
}

// runDebugMirror forwards new controller debug entries into the websocket
// hub. The ring buffer drops oldest on overflow, so entries are tracked by
// timestamp rather than index.
func runDebugMirror(ctx context.Context, ctrl *migration.Controller, hub *wsmirror.Hub) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	var lastSeen time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, e := range ctrl.DebugLog() {
				if !e.At.After(lastSeen) {
					continue
				}
				lastSeen = e.At
				hub.Publish(wsmirror.Event{At: e.At, Message: e.Message})
			}
		}
	}
}

func serveWSMirror(ctx context.Context, hub *wsmirror.Hub, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/stream", hub.Handler)
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
