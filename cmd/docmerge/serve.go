// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/docmerge/internal/history"
	"github.com/pdiddy/docmerge/internal/merge"
	"github.com/pdiddy/docmerge/internal/session"
)

const maxBodyBytes = 1 << 20

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Drive the file list and merges over HTTP",
	Long: `Serve exposes the interactive file list as a small JSON API:

  GET    /files          list entries
  POST   /files          {"path": "..."} add one file
  POST   /files/drop     raw drop payload as the request body
  DELETE /files          {"indices": [0, 2]} remove entries (0-based)
  DELETE /files/all      clear the list
  POST   /merge          {"output": "..."} start a merge
  GET    /status         current job status
  GET    /history        recent jobs (?limit=N)
  GET    /history/:id    one job

Notifications are written to the log.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.ServerAddr = addr
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := session.New(a.pipeline, session.WithLogger(log))
	go s.Run(ctx)
	go logNotifications(ctx, s.Notifications(), log)

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           newRouter(s, a.history),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", cfg.ServerAddr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func logNotifications(ctx context.Context, notes <-chan session.Notification, log logrus.FieldLogger) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-notes:
			entry := log.WithFields(logrus.Fields{"job": n.JobID, "level": n.Level})
			if n.Path != "" {
				entry = entry.WithField("path", n.Path)
			}
			switch n.Level {
			case session.LevelSuccess:
				entry.Info(n.Message)
			case session.LevelWarning:
				entry.Warn(n.Message)
			default:
				entry.Error(n.Message)
			}
		}
	}
}

// api holds the HTTP handlers. jobs may be nil when history is disabled.
type api struct {
	s    *session.Session
	jobs *history.Store
}

func newRouter(s *session.Session, jobs *history.Store) http.Handler {
	a := &api{s: s, jobs: jobs}
	router := httprouter.New()
	router.GET("/files", a.listFiles)
	router.POST("/files", a.addFile)
	router.POST("/files/drop", a.dropFiles)
	router.DELETE("/files", a.removeFiles)
	router.DELETE("/files/all", a.clearFiles)
	router.POST("/merge", a.startMerge)
	router.GET("/status", a.status)
	router.GET("/history", a.listJobs)
	router.GET("/history/:id", a.getJob)
	return router
}

type fileView struct {
	Index int    `json:"index"`
	Path  string `json:"path"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
}

func (a *api) listFiles(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	files, err := a.s.Files()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	views := make([]fileView, len(files))
	for i, f := range files {
		views[i] = fileView{Index: i, Path: f.Path, Name: f.Name(), Kind: string(f.Kind)}
	}
	writeJSON(w, http.StatusOK, views)
}

func (a *api) addFile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		Path string `json:"path"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	added, err := a.s.Add(req.Path)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"added": added})
}

func (a *api) dropFiles(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	added, err := a.s.Drop(string(payload))
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if added == nil {
		added = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"added": added})
}

func (a *api) removeFiles(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		Indices []int `json:"indices"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	n, err := a.s.Remove(req.Indices...)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

func (a *api) clearFiles(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := a.s.Clear(); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) startMerge(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		Output string `json:"output"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	started, err := a.s.Merge(req.Output)
	switch {
	case merge.IsInputError(err):
		writeError(w, http.StatusBadRequest, err)
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeJSON(w, http.StatusAccepted, map[string]bool{"started": started})
	}
}

func (a *api) status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	st, err := a.s.Status()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *api) listJobs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if a.jobs == nil {
		writeError(w, http.StatusNotFound, errors.New("history is disabled"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := a.jobs.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (a *api) getJob(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if a.jobs == nil {
		writeError(w, http.StatusNotFound, errors.New("history is disabled"))
		return
	}
	rec, err := a.jobs.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from server.addr, :8080)")
	rootCmd.AddCommand(serveCmd)
}
