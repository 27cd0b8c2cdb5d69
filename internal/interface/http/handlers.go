package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sats-family/chore-hub/config"
	"github.com/sats-family/chore-hub/internal/application/command"
	"github.com/sats-family/chore-hub/internal/application/query"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/internal/domain/unlock"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"name":    "Family Chore Hub API",
		"version": s.config.Version,
		"endpoints": map[string]string{
			"health":   "/health",
			"tasks":    "/api/v1/families/{familyID}/tasks",
			"children": "/api/v1/children/{childID}",
			"learning": "/api/v1/learning/modules",
		},
	})
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, r, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, r, http.StatusOK, status)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": s.config.Version,
	})
}

// handleReady handles the readiness check endpoint.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		if status := s.deps.HealthChecker.Check(r.Context()); !status.Ready {
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status":  "not_ready",
				"message": status.Message,
			})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness check endpoint.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// FAMILY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerChildRequest struct {
	ChildID     int64  `json:"childId"`
	DisplayName string `json:"displayName"`
}

type childResponse struct {
	ChildID     int64     `json:"childId"`
	FamilyID    string    `json:"familyId"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// handleRegisterChild handles POST /api/v1/families/{familyID}/children
func (s *Server) handleRegisterChild(w http.ResponseWriter, r *http.Request) {
	if s.deps.RegisterChild == nil {
		notConfigured(w)
		return
	}
	var req registerChildRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.deps.RegisterChild.Handle(r.Context(), command.RegisterChildCommand{
		FamilyID:    shared.FamilyID(r.PathValue("familyID")),
		ChildID:     shared.ChildID(req.ChildID),
		DisplayName: req.DisplayName,
	})
	if err != nil {
		s.writeDomainError(w, r, "RegisterChild", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, childResponse{
		ChildID:     res.Child.ID.Int64(),
		FamilyID:    res.Child.FamilyID.String(),
		DisplayName: res.Child.DisplayName,
		CreatedAt:   res.Child.CreatedAt,
	})
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Sats        int64  `json:"sats"`
	IsRequired  bool   `json:"isRequired"`
	BypassRatio bool   `json:"bypassRatio"`
}

// handleCreateTask handles POST /api/v1/families/{familyID}/tasks
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	if s.deps.CreateTask == nil {
		notConfigured(w)
		return
	}
	var req createTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.deps.CreateTask.Handle(r.Context(), command.CreateTaskCommand{
		FamilyID:    shared.FamilyID(r.PathValue("familyID")),
		Title:       req.Title,
		Description: req.Description,
		Sats:        shared.Sats(req.Sats),
		IsRequired:  req.IsRequired,
		BypassRatio: req.BypassRatio,
	})
	if err != nil {
		s.writeDomainError(w, r, "CreateTask", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, query.TaskFromDomain(res.Task))
}

// handleListTasks handles GET /api/v1/families/{familyID}/tasks?status=open
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	if s.deps.ListTasks == nil {
		notConfigured(w)
		return
	}
	res, err := s.deps.ListTasks.Handle(r.Context(), query.ListTasksQuery{
		FamilyID: shared.FamilyID(r.PathValue("familyID")),
		Status:   r.URL.Query().Get("status"),
	})
	if err != nil {
		s.writeDomainError(w, r, "ListTasks", err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// handleGetLeaderboard handles GET /api/v1/families/{familyID}/leaderboard
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboard == nil {
		notConfigured(w)
		return
	}
	res, err := s.deps.GetLeaderboard.Handle(r.Context(), query.GetLeaderboardQuery{
		FamilyID: shared.FamilyID(r.PathValue("familyID")),
	})
	if err != nil {
		s.writeDomainError(w, r, "GetLeaderboard", err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

type levelBonusRequest struct {
	BonusSats         int64 `json:"bonusSats"`
	MilestoneInterval int   `json:"milestoneInterval"`
	IsActive          bool  `json:"isActive"`
}

type levelBonusResponse struct {
	FamilyID          string `json:"familyId"`
	BonusSats         int64  `json:"bonusSats"`
	MilestoneInterval int    `json:"milestoneInterval"`
	IsActive          bool   `json:"isActive"`
}

// handleSaveLevelBonus handles PUT /api/v1/families/{familyID}/level-bonus
func (s *Server) handleSaveLevelBonus(w http.ResponseWriter, r *http.Request) {
	fam := r.PathValue("familyID")
	if !s.featureOn(w, config.FeatureLevelBonus, fam) {
		return
	}
	if s.deps.SaveLevelBonusSettings == nil {
		notConfigured(w)
		return
	}
	var req levelBonusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.deps.SaveLevelBonusSettings.Handle(r.Context(), command.SaveLevelBonusSettingsCommand{
		FamilyID:          shared.FamilyID(fam),
		BonusSats:         shared.Sats(req.BonusSats),
		MilestoneInterval: req.MilestoneInterval,
		IsActive:          req.IsActive,
	})
	if err != nil {
		s.writeDomainError(w, r, "SaveLevelBonusSettings", err)
		return
	}
	writeJSON(w, r, http.StatusOK, levelBonusResponse{
		FamilyID:          res.Settings.FamilyID.String(),
		BonusSats:         res.Settings.BonusSats.Int64(),
		MilestoneInterval: res.Settings.MilestoneInterval,
		IsActive:          res.Settings.IsActive,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// TASK HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetTask handles GET /api/v1/tasks/{taskID}
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetTask == nil {
		notConfigured(w)
		return
	}
	id, ok := taskIDParam(w, r)
	if !ok {
		return
	}
	res, err := s.deps.GetTask.Handle(r.Context(), query.GetTaskQuery{TaskID: id})
	if err != nil {
		s.writeDomainError(w, r, "GetTask", err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

type acceptTaskRequest struct {
	ChildID int64 `json:"childId"`
}

type acceptTaskResponse struct {
	Task         query.TaskDTO `json:"task"`
	ConsumedSlot bool          `json:"consumedSlot"`
	Unlock       unlock.Status `json:"unlock"`
}

// handleAcceptTask handles POST /api/v1/tasks/{taskID}/accept
func (s *Server) handleAcceptTask(w http.ResponseWriter, r *http.Request) {
	if s.deps.AcceptTask == nil {
		notConfigured(w)
		return
	}
	id, ok := taskIDParam(w, r)
	if !ok {
		return
	}
	var req acceptTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.deps.AcceptTask.Handle(r.Context(), command.AcceptTaskCommand{
		TaskID:  id,
		ChildID: shared.ChildID(req.ChildID),
	})
	if err != nil {
		s.writeDomainError(w, r, "AcceptTask", err)
		return
	}
	writeJSON(w, r, http.StatusOK, acceptTaskResponse{
		Task:         query.TaskFromDomain(res.Task),
		ConsumedSlot: res.ConsumedSlot,
		Unlock:       res.Unlock,
	})
}

type submitTaskRequest struct {
	ChildID  int64  `json:"childId"`
	ProofRef string `json:"proofRef"`
}

// handleSubmitTask handles POST /api/v1/tasks/{taskID}/submit
func (s *Server) handleSubmitTask(w http.ResponseWriter, r *http.Request) {
	if s.deps.SubmitTask == nil {
		notConfigured(w)
		return
	}
	id, ok := taskIDParam(w, r)
	if !ok {
		return
	}
	var req submitTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.deps.SubmitTask.Handle(r.Context(), command.SubmitTaskCommand{
		TaskID:   id,
		ChildID:  shared.ChildID(req.ChildID),
		ProofRef: req.ProofRef,
	})
	if err != nil {
		s.writeDomainError(w, r, "SubmitTask", err)
		return
	}
	writeJSON(w, r, http.StatusOK, query.TaskFromDomain(res.Task))
}

type payoutDTO struct {
	Level  int       `json:"level"`
	Sats   int64     `json:"sats"`
	PaidAt time.Time `json:"paidAt"`
}

type approveTaskResponse struct {
	Outcome             shared.Outcome `json:"outcome"`
	Task                query.TaskDTO  `json:"task"`
	SettlementReference string         `json:"settlementReference,omitempty"`
	ChoreLevel          int            `json:"choreLevel"`
	ApprovedCount       int            `json:"approvedCount"`
	Unlock              unlock.Status  `json:"unlock"`
	LevelBonuses        []payoutDTO    `json:"levelBonuses,omitempty"`

	// LevelBonusPending is set when the approval committed but a level bonus
	// could not be settled yet. The scheduler retries it.
	LevelBonusPending bool `json:"levelBonusPending,omitempty"`
}

// handleApproveTask handles POST /api/v1/tasks/{taskID}/approve
func (s *Server) handleApproveTask(w http.ResponseWriter, r *http.Request) {
	if s.deps.ApproveTask == nil {
		notConfigured(w)
		return
	}
	id, ok := taskIDParam(w, r)
	if !ok {
		return
	}
	res, err := s.deps.ApproveTask.Handle(r.Context(), command.ApproveTaskCommand{TaskID: id})
	if err != nil {
		s.writeDomainError(w, r, "ApproveTask", err)
		return
	}

	resp := approveTaskResponse{
		Outcome:             res.Outcome,
		Task:                query.TaskFromDomain(res.Task),
		SettlementReference: res.SettlementReference,
		ChoreLevel:          res.ChoreLevel,
		ApprovedCount:       res.ApprovedCount,
		Unlock:              res.Unlock,
		LevelBonusPending:   res.MilestoneError != nil,
	}
	if res.Milestones != nil {
		for _, p := range res.Milestones.Paid {
			resp.LevelBonuses = append(resp.LevelBonuses, payoutDTO{Level: p.Level, Sats: p.Sats.Int64(), PaidAt: p.PaidAt})
		}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// handleDeleteTask handles DELETE /api/v1/tasks/{taskID}
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if s.deps.DeleteTask == nil {
		notConfigured(w)
		return
	}
	id, ok := taskIDParam(w, r)
	if !ok {
		return
	}
	res, err := s.deps.DeleteTask.Handle(r.Context(), command.DeleteTaskCommand{TaskID: id})
	if err != nil {
		s.writeDomainError(w, r, "DeleteTask", err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"deleted": res.TaskID.String()})
}

// ══════════════════════════════════════════════════════════════════════════════
// CHILD PROGRESSION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetUnlockStatus handles GET /api/v1/children/{childID}/unlock
func (s *Server) handleGetUnlockStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetUnlockStatus == nil {
		notConfigured(w)
		return
	}
	child, ok := childIDParam(w, r)
	if !ok {
		return
	}
	res, err := s.deps.GetUnlockStatus.Handle(r.Context(), query.ChildQuery{ChildID: child})
	if err != nil {
		s.writeDomainError(w, r, "GetUnlockStatus", err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// handleGetLevel handles GET /api/v1/children/{childID}/level
func (s *Server) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLevel == nil {
		notConfigured(w)
		return
	}
	child, ok := childIDParam(w, r)
	if !ok {
		return
	}
	res, err := s.deps.GetLevel.Handle(r.Context(), query.ChildQuery{ChildID: child})
	if err != nil {
		s.writeDomainError(w, r, "GetLevel", err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// handleGetEarnings handles GET /api/v1/children/{childID}/earnings?limit=50
func (s *Server) handleGetEarnings(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetEarnings == nil {
		notConfigured(w)
		return
	}
	child, ok := childIDParam(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "limit must be a number")
		return
	}
	res, err := s.deps.GetEarnings.Handle(r.Context(), query.GetEarningsQuery{ChildID: child, Limit: limit})
	if err != nil {
		s.writeDomainError(w, r, "GetEarnings", err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEARNING HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetTodaysChallenge handles GET /api/v1/children/{childID}/challenge
func (s *Server) handleGetTodaysChallenge(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetTodaysChallenge == nil {
		notConfigured(w)
		return
	}
	child, ok := childIDParam(w, r)
	if !ok {
		return
	}
	if !s.childFeatureOn(w, r, config.FeatureDailyChallenge, child) {
		return
	}
	res, err := s.deps.GetTodaysChallenge.Handle(r.Context(), query.ChildQuery{ChildID: child})
	if err != nil {
		s.writeDomainError(w, r, "GetTodaysChallenge", err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

type completeChallengeRequest struct {
	AnswerIndex *int `json:"answerIndex"`
}

type progressDTO struct {
	XP            int `json:"xp"`
	Level         int `json:"level"`
	Streak        int `json:"streak"`
	LongestStreak int `json:"longestStreak"`
	GuardianLevel int `json:"guardianLevel"`
}

func progressFrom(p command.ProgressSnapshot) progressDTO {
	return progressDTO{
		XP:            p.XP,
		Level:         p.Level,
		Streak:        p.Streak,
		LongestStreak: p.LongestStreak,
		GuardianLevel: p.GuardianLevel,
	}
}

type completeChallengeResponse struct {
	Outcome     shared.Outcome `json:"outcome"`
	ChallengeID string         `json:"challengeId"`
	Date        string         `json:"date"`
	Correct     bool           `json:"correct"`
	AwardedXP   int            `json:"awardedXp"`
	LeveledUp   bool           `json:"leveledUp"`
	Progress    progressDTO    `json:"progress"`
}

// handleCompleteChallenge handles POST /api/v1/children/{childID}/challenge
func (s *Server) handleCompleteChallenge(w http.ResponseWriter, r *http.Request) {
	if s.deps.CompleteChallenge == nil {
		notConfigured(w)
		return
	}
	child, ok := childIDParam(w, r)
	if !ok {
		return
	}
	if !s.childFeatureOn(w, r, config.FeatureDailyChallenge, child) {
		return
	}
	var req completeChallengeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.AnswerIndex == nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "answerIndex is required")
		return
	}
	res, err := s.deps.CompleteChallenge.Handle(r.Context(), command.CompleteChallengeCommand{
		ChildID:     child,
		AnswerIndex: *req.AnswerIndex,
	})
	if err != nil {
		s.writeDomainError(w, r, "CompleteChallenge", err)
		return
	}
	writeJSON(w, r, http.StatusOK, completeChallengeResponse{
		Outcome:     res.Outcome,
		ChallengeID: res.ChallengeID,
		Date:        res.Date.String(),
		Correct:     res.Correct,
		AwardedXP:   res.AwardedXP,
		LeveledUp:   res.LeveledUp,
		Progress:    progressFrom(res.Progress),
	})
}

// handleGetLearningProgress handles GET /api/v1/children/{childID}/learning
func (s *Server) handleGetLearningProgress(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLearning == nil {
		notConfigured(w)
		return
	}
	child, ok := childIDParam(w, r)
	if !ok {
		return
	}
	res, err := s.deps.GetLearning.Handle(r.Context(), query.ChildQuery{ChildID: child})
	if err != nil {
		s.writeDomainError(w, r, "GetLearningProgress", err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// handleListModules handles GET /api/v1/learning/modules
func (s *Server) handleListModules(w http.ResponseWriter, r *http.Request) {
	if !s.featureOn(w, config.FeatureLearningModules, "") {
		return
	}
	writeJSON(w, r, http.StatusOK, query.ListModules())
}

// handleGetModuleQuiz handles GET /api/v1/learning/modules/{moduleID}/quiz
func (s *Server) handleGetModuleQuiz(w http.ResponseWriter, r *http.Request) {
	if !s.featureOn(w, config.FeatureLearningModules, "") {
		return
	}
	res, err := query.GetModuleQuiz(r.PathValue("moduleID"))
	if err != nil {
		s.writeDomainError(w, r, "GetModuleQuiz", err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

type completeModuleRequest struct {
	Answers []int `json:"answers"`
}

type gradeDTO struct {
	Correct int  `json:"correct"`
	Total   int  `json:"total"`
	Passed  bool `json:"passed"`
}

type completeModuleResponse struct {
	Outcome   shared.Outcome `json:"outcome"`
	ModuleID  string         `json:"moduleId"`
	Grade     gradeDTO       `json:"grade"`
	AwardedXP int            `json:"awardedXp"`
	LeveledUp bool           `json:"leveledUp"`
	Progress  progressDTO    `json:"progress"`
}

// handleCompleteModule handles POST /api/v1/children/{childID}/modules/{moduleID}/complete
func (s *Server) handleCompleteModule(w http.ResponseWriter, r *http.Request) {
	if s.deps.CompleteModule == nil {
		notConfigured(w)
		return
	}
	child, ok := childIDParam(w, r)
	if !ok {
		return
	}
	if !s.childFeatureOn(w, r, config.FeatureLearningModules, child) {
		return
	}
	var req completeModuleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.deps.CompleteModule.Handle(r.Context(), command.CompleteModuleCommand{
		ChildID:  child,
		ModuleID: r.PathValue("moduleID"),
		Answers:  req.Answers,
	})
	if err != nil {
		s.writeDomainError(w, r, "CompleteModule", err)
		return
	}
	writeJSON(w, r, http.StatusOK, completeModuleResponse{
		Outcome:   res.Outcome,
		ModuleID:  res.ModuleID,
		Grade:     gradeDTO{Correct: res.Grade.Correct, Total: res.Grade.Total, Passed: res.Grade.Passed},
		AwardedXP: res.AwardedXP,
		LeveledUp: res.LeveledUp,
		Progress:  progressFrom(res.Progress),
	})
}

type claimGuardianRequest struct {
	Tier int `json:"tier"`
}

type claimGuardianResponse struct {
	Outcome             shared.Outcome `json:"outcome"`
	Tier                int            `json:"tier"`
	Sats                int64          `json:"sats"`
	SettlementReference string         `json:"settlementReference,omitempty"`
}

// handleClaimGuardianBonus handles POST /api/v1/children/{childID}/guardian-bonus
func (s *Server) handleClaimGuardianBonus(w http.ResponseWriter, r *http.Request) {
	if s.deps.ClaimGuardianBonus == nil {
		notConfigured(w)
		return
	}
	child, ok := childIDParam(w, r)
	if !ok {
		return
	}
	if !s.childFeatureOn(w, r, config.FeatureGuardianBonus, child) {
		return
	}
	var req claimGuardianRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.deps.ClaimGuardianBonus.Handle(r.Context(), command.ClaimGuardianBonusCommand{
		ChildID: child,
		Tier:    req.Tier,
	})
	if err != nil {
		s.writeDomainError(w, r, "ClaimGuardianBonus", err)
		return
	}
	writeJSON(w, r, http.StatusOK, claimGuardianResponse{
		Outcome:             res.Outcome,
		Tier:                res.Tier,
		Sats:                res.Sats.Int64(),
		SettlementReference: res.SettlementReference,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// featureOn writes 404 and returns false when the feature is switched off.
func (s *Server) featureOn(w http.ResponseWriter, feature, familyID string) bool {
	if s.deps.Features == nil || s.deps.Features.IsEnabled(feature, familyID) {
		return true
	}
	writeJSONError(w, http.StatusNotFound, "feature_disabled", "This feature is not enabled")
	return false
}

// childFeatureOn checks a feature against the child's family. An unknown
// child is answered with the usual domain error.
func (s *Server) childFeatureOn(w http.ResponseWriter, r *http.Request, feature string, child shared.ChildID) bool {
	if s.deps.Features == nil {
		return true
	}
	var fam string
	if s.deps.GetChildFamily != nil {
		id, err := s.deps.GetChildFamily.Handle(r.Context(), query.ChildQuery{ChildID: child})
		if err != nil {
			s.writeDomainError(w, r, "FeatureCheck", err)
			return false
		}
		fam = id.String()
	}
	return s.featureOn(w, feature, fam)
}

func notConfigured(w http.ResponseWriter) {
	writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Handler not configured")
}

// decodeBody reads a JSON body into dst. An empty body leaves dst zeroed.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return false
	}
	return true
}

func taskIDParam(w http.ResponseWriter, r *http.Request) (shared.TaskID, bool) {
	id, err := shared.ParseTaskID(r.PathValue("taskID"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "task id must be a UUID")
		return "", false
	}
	return id, true
}

func childIDParam(w http.ResponseWriter, r *http.Request) (shared.ChildID, bool) {
	id, err := shared.ParseChildID(r.PathValue("childID"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "child id must be a positive integer")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
