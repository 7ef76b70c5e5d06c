package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	rankingerrors "bountyboard/contexts/community-experience/ranking-engine/domain/errors"
	rankinghttp "bountyboard/contexts/community-experience/ranking-engine/transport/http"
)

const maxRankingBodyBytes = 64 << 10

func writeRankingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, rankinghttp.ErrorResponse{Code: code, Message: message})
}

func writeRankingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rankingerrors.ErrInvalidSeverity):
		writeRankingError(w, http.StatusBadRequest, "invalid_severity", err.Error())
	case errors.Is(err, rankingerrors.ErrInvalidPeriod),
		errors.Is(err, rankingerrors.ErrInvalidInput):
		writeRankingError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, rankingerrors.ErrRankingNotFound):
		writeRankingError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, rankingerrors.ErrDuplicateSourceRef):
		writeRankingError(w, http.StatusConflict, "duplicate_source_ref", err.Error())
	case errors.Is(err, rankingerrors.ErrLockTimeout):
		writeRankingError(w, http.StatusConflict, "busy", err.Error())
	case errors.Is(err, rankingerrors.ErrDependencyUnavailable):
		writeRankingError(w, http.StatusServiceUnavailable, "dependency_unavailable", err.Error())
	default:
		writeRankingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func decodeRankingBody(w http.ResponseWriter, r *http.Request, target any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRankingBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeRankingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func parseRankingInt(w http.ResponseWriter, raw string, name string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		writeRankingError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a non-negative integer")
		return 0, false
	}
	return value, true
}

func (s *Server) handleRankingApplyEvent(w http.ResponseWriter, r *http.Request) {
	var req rankinghttp.ApplyEventRequest
	if !decodeRankingBody(w, r, &req) {
		return
	}
	resp, err := s.ranking.Handler.ApplyEventHandler(r.Context(), req)
	if err != nil {
		writeRankingDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

// handleRankingRedeem answers 200 for a redemption and 422 when the user is
// not eligible; both carry the success flag and a human readable message.
func (s *Server) handleRankingRedeem(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.PathValue("user_id"))
	var req rankinghttp.RedeemRewardRequest
	if !decodeRankingBody(w, r, &req) {
		return
	}
	resp, err := s.ranking.Handler.RedeemRewardHandler(r.Context(), userID, req)
	if err != nil {
		writeRankingDomainError(w, err)
		return
	}
	status := http.StatusOK
	if !resp.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleRankingLeaderboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, ok := parseRankingInt(w, query.Get("limit"), "limit")
	if !ok {
		return
	}
	offset, ok := parseRankingInt(w, query.Get("offset"), "offset")
	if !ok {
		return
	}
	resp, err := s.ranking.Handler.LeaderboardHandler(r.Context(), query.Get("tier"), query.Get("q"), limit, offset)
	if err != nil {
		writeRankingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRankingTiers(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ranking.Handler.ListTiersHandler(r.Context())
	if err != nil {
		writeRankingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRankingGetUser(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ranking.Handler.GetUserRankingHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeRankingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRankingTransactions(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseRankingInt(w, r.URL.Query().Get("limit"), "limit")
	if !ok {
		return
	}
	resp, err := s.ranking.Handler.ListTransactionsHandler(r.Context(), r.PathValue("user_id"), limit)
	if err != nil {
		writeRankingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRankingAchievements(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ranking.Handler.ListAchievementsHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeRankingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRankingRewards(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ranking.Handler.ListRewardsHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeRankingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
