package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"polychat/internal/domain"
)

// MaxWait caps the long-poll duration a client may ask for.
const MaxWait = 60 * time.Second

// Server exposes a Memory store over JSON/HTTP.
//
// HTTP API
//
//	PUT    /profiles/{uid}                       store a UserProfile
//	GET    /profiles/{uid}                       fetch a profile
//	GET    /profiles?username={name}             find a profile by username
//	DELETE /profiles/{uid}                       delete a profile
//	POST   /conversations                        create-if-absent; {"created": bool}
//	GET    /conversations?participant={uid}      conversations uid takes part in
//	GET    /conversations/{id}                   fetch a conversation
//	PUT    /conversations/{id}/prefs/{uid}       set a language preference
//	POST   /conversations/{id}/messages          append an envelope
//	GET    /conversations/{id}/messages?since=N&wait=D
//	                                             list envelopes after N; with wait,
//	                                             block up to D for the first one
//	DELETE /conversations/{id}/messages/{msg}    delete an envelope
type Server struct {
	store *Memory
	log   zerolog.Logger
	mux   *http.ServeMux
}

// NewServer returns a handler serving store.
func NewServer(store *Memory, log zerolog.Logger) *Server {
	s := &Server{store: store, log: log, mux: http.NewServeMux()}

	s.mux.HandleFunc("PUT /profiles/{uid}", s.putProfile)
	s.mux.HandleFunc("GET /profiles/{uid}", s.getProfile)
	s.mux.HandleFunc("GET /profiles", s.findProfile)
	s.mux.HandleFunc("DELETE /profiles/{uid}", s.deleteProfile)

	s.mux.HandleFunc("POST /conversations", s.createConversation)
	s.mux.HandleFunc("GET /conversations", s.listConversations)
	s.mux.HandleFunc("GET /conversations/{id}", s.getConversation)
	s.mux.HandleFunc("PUT /conversations/{id}/prefs/{uid}", s.setLanguage)

	s.mux.HandleFunc("POST /conversations/{id}/messages", s.appendEnvelope)
	s.mux.HandleFunc("GET /conversations/{id}/messages", s.listEnvelopes)
	s.mux.HandleFunc("DELETE /conversations/{id}/messages/{msg}", s.deleteEnvelope)
	return s
}

// ServeHTTP implements http.Handler with an access log line per request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)

	s.log.Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("remote", r.RemoteAddr).
		Int("status", rec.status).
		Int("bytes", rec.bytes).
		Dur("duration", time.Since(start)).
		Msg("request")
}

// ---------- Profiles ----------

func (s *Server) putProfile(w http.ResponseWriter, r *http.Request) {
	var p domain.UserProfile
	if !decode(w, r, &p) {
		return
	}
	p.UserID = domain.UserID(r.PathValue("uid"))
	if err := s.store.PutProfile(r.Context(), p); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	p, ok, err := s.store.GetProfile(r.Context(), domain.UserID(r.PathValue("uid")))
	if err != nil {
		s.fail(w, err)
		return
	}
	if !ok {
		s.fail(w, domain.ErrProfileNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) findProfile(w http.ResponseWriter, r *http.Request) {
	name := domain.Username(r.URL.Query().Get("username"))
	if name == "" {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: "username query parameter required"})
		return
	}
	p, ok, err := s.store.FindProfileByUsername(r.Context(), name)
	if err != nil {
		s.fail(w, err)
		return
	}
	if !ok {
		s.fail(w, domain.ErrProfileNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProfile(r.Context(), domain.UserID(r.PathValue("uid"))); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------- Conversations ----------

func (s *Server) createConversation(w http.ResponseWriter, r *http.Request) {
	var c domain.Conversation
	if !decode(w, r, &c) {
		return
	}
	created, err := s.store.CreateConversation(r.Context(), c)
	if err != nil {
		s.fail(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, CreateResult{Created: created})
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	uid := domain.UserID(r.URL.Query().Get("participant"))
	if uid == "" {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: "participant query parameter required"})
		return
	}
	convs, err := s.store.ListConversations(r.Context(), uid)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	id := domain.ConversationID(r.PathValue("id"))
	c, ok, err := s.store.GetConversation(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if !ok {
		s.fail(w, domain.ErrConversationNotFound)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) setLanguage(w http.ResponseWriter, r *http.Request) {
	var body LanguageBody
	if !decode(w, r, &body) {
		return
	}
	err := s.store.SetLanguage(
		r.Context(),
		domain.ConversationID(r.PathValue("id")),
		domain.UserID(r.PathValue("uid")),
		body.Lang,
	)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------- Messages ----------

func (s *Server) appendEnvelope(w http.ResponseWriter, r *http.Request) {
	var env domain.Envelope
	if !decode(w, r, &env) {
		return
	}
	env.ConversationID = domain.ConversationID(r.PathValue("id"))
	stored, err := s.store.AppendEnvelope(r.Context(), env)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) listEnvelopes(w http.ResponseWriter, r *http.Request) {
	id := domain.ConversationID(r.PathValue("id"))
	q := r.URL.Query()

	var since domain.Cursor
	if v := q.Get("since"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorBody{Error: "bad since: " + err.Error()})
			return
		}
		since = domain.Cursor(n)
	}
	var wait time.Duration
	if v := q.Get("wait"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			writeJSON(w, http.StatusBadRequest, ErrorBody{Error: "bad wait: " + v})
			return
		}
		wait = min(d, MaxWait)
	}

	envs, err := s.waitForEnvelopes(r.Context(), id, since, wait)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envs)
}

// waitForEnvelopes lists envelopes after since, blocking up to wait for the
// first one to arrive.
func (s *Server) waitForEnvelopes(
	ctx context.Context,
	id domain.ConversationID,
	since domain.Cursor,
	wait time.Duration,
) ([]domain.Envelope, error) {
	var deadline <-chan time.Time
	if wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		deadline = t.C
	}
	for {
		// Take the wake channel before listing so an append in between is seen.
		wake, err := s.store.WaitChannel(id)
		if err != nil {
			return nil, err
		}
		envs, err := s.store.ListEnvelopes(ctx, id, since)
		if err != nil || len(envs) > 0 || deadline == nil {
			return envs, err
		}
		select {
		case <-wake:
		case <-deadline:
			return envs, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (s *Server) deleteEnvelope(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteEnvelope(
		r.Context(),
		domain.ConversationID(r.PathValue("id")),
		domain.MessageID(r.PathValue("msg")),
	)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------- helpers ----------

func (s *Server) fail(w http.ResponseWriter, err error) {
	status, code := ErrorStatus(err)
	if status == http.StatusInternalServerError && !errors.Is(err, context.Canceled) {
		s.log.Error().Err(err).Msg("store error")
	}
	writeJSON(w, status, ErrorBody{Error: err.Error(), Code: code})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: "bad request body: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusRecorder captures the status code and size for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}
