package web

import (
	"fmt"
	"net/http"

	"github.com/sandevgo/lifecoach/internal/core"
)

type sessionRequest struct {
	SessionID flexID `json:"sessionId"`
}

type feedbackRequest struct {
	SessionID      flexID `json:"sessionId"`
	MessageContent string `json:"messageContent"`
	Feedback       string `json:"feedback"`
}

type goalRequest struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	ID     flexID `json:"id"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type goalsResponse struct {
	Success bool        `json:"success"`
	Goals   []core.Goal `json:"goals"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, email string) {
	history, err := s.accounts.History(r.Context(), email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, email string) {
	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := s.accounts.Session(r.Context(), email, int64(req.SessionID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request, email string) {
	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.accounts.DeleteSession(r.Context(), email, int64(req.SessionID)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request, email string) {
	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	err := s.accounts.Feedback(r.Context(), email, int64(req.SessionID), req.MessageContent, req.Feedback)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request, email string) {
	goals, err := s.accounts.Goals(r.Context(), email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (s *Server) handleGoalAction(w http.ResponseWriter, r *http.Request, email string) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var (
		goals []core.Goal
		err   error
	)
	switch req.Action {
	case "add":
		goals, err = s.accounts.AddGoal(r.Context(), email, req.Title)
	case "complete":
		goals, err = s.accounts.CompleteGoal(r.Context(), email, int64(req.ID))
	case "delete":
		goals, err = s.accounts.DeleteGoal(r.Context(), email, int64(req.ID))
	default:
		err = fmt.Errorf("%w: unknown goal action %q", core.ErrInvalidRequest, req.Action)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goalsResponse{Success: true, Goals: goals})
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request, email string) {
	streak, err := s.accounts.CheckIn(r.Context(), email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{
		Success: true,
		Message: fmt.Sprintf("Congratulations! Your streak is now %d days.", streak),
	})
}

func (s *Server) handleBadge(w http.ResponseWriter, r *http.Request, email string) {
	badge, err := s.accounts.Badge(r.Context(), email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, badge)
}

func (s *Server) handleUserCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.accounts.UserCount(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		Count   int  `json:"count"`
	}{Success: true, Count: n})
}
