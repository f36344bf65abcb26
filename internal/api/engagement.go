package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/habitloop/habitloop/internal/domain"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

// ─── Check-ins ──────────────────────────────────────────────────────────────

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.RecordCheckIn()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.broadcast("checkin", "created", st.LastCheckIn, map[string]any{
		"current_streak": st.CurrentStreak,
		"longest_streak": st.LongestStreak,
	})
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.TouchActivity(); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.GetStreakState())
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.EvaluateTrigger())
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Summary())
}

func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Level())
}

// ─── Reminders ──────────────────────────────────────────────────────────────

// reminderRequest is the create/update body. Enabled defaults to true.
type reminderRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Time        string `json:"time"`
	Days        []int  `json:"days"`
	Enabled     *bool  `json:"enabled"`
}

func (req reminderRequest) reminder(id int64) domain.Reminder {
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	return domain.Reminder{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Time:        req.Time,
		Days:        req.Days,
		Enabled:     enabled,
	}
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	rems := s.engine.ListReminders()
	if rems == nil {
		rems = []domain.Reminder{}
	}
	writeJSON(w, http.StatusOK, rems)
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := s.engine.SaveReminder(req.reminder(0))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.broadcast("reminder", "created", strconv.FormatInt(saved.ID, 10), nil)
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req reminderRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := s.engine.SaveReminder(req.reminder(id))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.broadcast("reminder", "updated", strconv.FormatInt(id, 10), nil)
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.engine.DeleteReminder(id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.broadcast("reminder", "deleted", strconv.FormatInt(id, 10), nil)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rem, err := s.engine.ToggleReminder(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.broadcast("reminder", "updated", strconv.FormatInt(id, 10), map[string]any{"enabled": rem.Enabled})
	writeJSON(w, http.StatusOK, rem)
}

// ─── Rewards ────────────────────────────────────────────────────────────────

type checkRewardsRequest struct {
	Interests []string `json:"interests"`
}

func (s *Server) handleCheckRewards(w http.ResponseWriter, r *http.Request) {
	var req checkRewardsRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	c := s.engine.CheckForRewards(req.Interests)
	if c == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleClaimReward(w http.ResponseWriter, r *http.Request) {
	claim, err := s.engine.ClaimReward(chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.broadcast("reward", "claimed", claim.RewardID, map[string]any{"type": claim.Type})
	writeJSON(w, http.StatusCreated, claim)
}

func (s *Server) handleClaimHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r, 0)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.engine.ClaimHistory(limit))
}

type interestsBody struct {
	Interests []string `json:"interests"`
}

func (s *Server) handleGetInterests(w http.ResponseWriter, r *http.Request) {
	interests := s.engine.Interests()
	if interests == nil {
		interests = []string{}
	}
	writeJSON(w, http.StatusOK, interestsBody{Interests: interests})
}

func (s *Server) handleSetInterests(w http.ResponseWriter, r *http.Request) {
	var body interestsBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := s.engine.SetInterests(body.Interests)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if saved == nil {
		saved = []string{}
	}
	writeJSON(w, http.StatusOK, interestsBody{Interests: saved})
}

// ─── Challenges ─────────────────────────────────────────────────────────────

func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	category := domain.ChallengeCategory(r.URL.Query().Get("category"))
	views := s.engine.ListChallenges(category)
	if views == nil {
		views = []domain.ChallengeView{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleStartChallenge(w http.ResponseWriter, r *http.Request) {
	v, err := s.engine.StartChallenge(chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.broadcast("challenge", "started", v.ID, nil)
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleCompleteChallenge(w http.ResponseWriter, r *http.Request) {
	v, err := s.engine.CompleteChallenge(chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.broadcast("challenge", "completed", v.ID, map[string]any{"xp_reward": v.XPReward})
	writeJSON(w, http.StatusOK, v)
}

// ─── Notifications ──────────────────────────────────────────────────────────

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r, 20)
	if !ok {
		return
	}
	notifs, err := s.notifications.Pending(limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if notifs == nil {
		notifs = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, notifs)
}

func (s *Server) handleNotificationShown(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.notifications.MarkShown(id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func queryLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return 0, false
	}
	return n, true
}
