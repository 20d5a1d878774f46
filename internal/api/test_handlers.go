package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gioe/aiq-assessment/internal/apperr"
	"github.com/gioe/aiq-assessment/internal/cat"
	"github.com/gioe/aiq-assessment/internal/model"
	"github.com/gioe/aiq-assessment/internal/store"
	"github.com/gioe/aiq-assessment/internal/validity"
)

const defaultFixedFormQuestionCount = 20

// handleTestStart creates a session: adaptive mode selects and returns
// the single first item at theta=0, SE=1; fixed mode returns the whole
// item list up front (spec.md §6).
func (s *Server) handleTestStart(c *gin.Context) {
	user := userFromContext(c)
	ctx := c.Request.Context()

	adaptive := c.Query("adaptive") != "false"
	questionCount := defaultFixedFormQuestionCount
	if qc := c.Query("question_count"); qc != "" {
		if n, err := strconv.Atoi(qc); err == nil && n > 0 {
			questionCount = n
		}
	}

	if _, err := s.sessions.LoadInProgress(ctx, user.ID); err == nil {
		respondError(c, apperr.Conflict("session_in_progress", "a test session is already in progress"))
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		respondError(c, apperr.Server("session_lookup_failed", err))
		return
	}

	mode := model.ModeAdaptive
	if !adaptive {
		mode = model.ModeFixed
	}
	session := model.NewSession(0, user.ID, mode, time.Now())

	if mode == model.ModeFixed {
		items, err := s.items.EligibleItems(ctx, store.ItemFilter{})
		if err != nil {
			respondError(c, apperr.Server("item_lookup_failed", err))
			return
		}
		if len(items) > questionCount {
			items = items[:questionCount]
		}
		if err := s.sessions.Start(ctx, session); err != nil {
			respondError(c, mapSessionStartErr(err))
			return
		}
		questions := make([]questionDTO, 0, len(items))
		for _, it := range items {
			questions = append(questions, toQuestionDTO(it))
		}
		c.JSON(http.StatusCreated, testStartResponse{
			SessionID: session.ID, Mode: string(mode),
			CurrentTheta: session.Theta, CurrentSE: session.SE,
			Questions: questions,
		})
		return
	}

	items, err := s.items.EligibleItems(ctx, store.ItemFilter{})
	if err != nil {
		respondError(c, apperr.Server("item_lookup_failed", err))
		return
	}
	candidates := cat.EligibleCandidates(items, nil)
	first, ok := s.engine.InitialSelection(candidates)
	if !ok {
		respondError(c, apperr.Admission("item_pool_exhausted", "no eligible items available"))
		return
	}
	session.PendingItemID = first.ID
	if err := s.sessions.Start(ctx, session); err != nil {
		respondError(c, mapSessionStartErr(err))
		return
	}

	itemsByID, err := s.items.ByIDs(ctx, []int64{first.ID})
	if err != nil || len(itemsByID) == 0 {
		respondError(c, apperr.Server("item_lookup_failed", err))
		return
	}
	q := toQuestionDTO(itemsByID[0])
	c.JSON(http.StatusCreated, testStartResponse{
		SessionID: session.ID, Mode: string(mode),
		CurrentTheta: session.Theta, CurrentSE: session.SE,
		NextQuestion: &q,
	})
}

func mapSessionStartErr(err error) error {
	if errors.Is(err, store.ErrConflict) {
		return apperr.Conflict("session_in_progress", "a test session is already in progress")
	}
	return apperr.Server("session_start_failed", err)
}

// handleTestNext scores the submitted answer, advances the adaptive
// engine, and returns either the next item or the final result
// (spec.md §6). Every mutation happens under the session's lock.
func (s *Server) handleTestNext(c *gin.Context) {
	user := userFromContext(c)
	ctx := c.Request.Context()

	var req testNextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("invalid_request", err.Error()))
		return
	}

	release, err := s.locker.Lock(ctx, req.SessionID)
	if err != nil {
		respondError(c, apperr.Server("lock_failed", err))
		return
	}
	defer release()

	session, err := s.sessions.Load(ctx, req.SessionID)
	if err != nil {
		respondError(c, apperr.NotFound("session_not_found", "session does not exist"))
		return
	}
	if session.UserID != user.ID {
		respondError(c, apperr.Authorization("forbidden", "session does not belong to this user"))
		return
	}
	if session.Terminal() {
		respondError(c, apperr.Conflict("session_terminal", "session has already ended"))
		return
	}
	if session.Mode != model.ModeAdaptive {
		respondError(c, apperr.Validation("session_not_adaptive", "this session is not adaptive; submit via /test/submit"))
		return
	}
	if session.HasServed(req.QuestionID) {
		respondError(c, apperr.Conflict("duplicate_response", "this item was already answered in this session"))
		return
	}
	if req.QuestionID != session.PendingItemID {
		respondError(c, apperr.Validation("item_not_served", "this item was not served in this session"))
		return
	}

	items, err := s.items.ByIDs(ctx, []int64{req.QuestionID})
	if err != nil || len(items) == 0 {
		respondError(c, apperr.NotFound("item_not_found", "question does not exist"))
		return
	}
	item := items[0]
	correct := req.UserAnswer == item.CorrectIdx

	latency := 0.0
	if req.TimeSpentSeconds != nil {
		latency = *req.TimeSpentSeconds
	}
	resp := &model.Response{
		UserID: user.ID, SessionID: session.ID, ItemID: item.ID,
		SubmittedAnswer: req.UserAnswer, Correct: correct,
		LatencySeconds: latency, AnsweredAt: time.Now(),
	}
	if err := s.sessions.AppendResponse(ctx, session.ID, item.ID, resp); err != nil {
		if errors.Is(err, store.ErrConflict) {
			respondError(c, apperr.Conflict("duplicate_response", "this item was already answered in this session"))
			return
		}
		respondError(c, apperr.Server("append_response_failed", err))
		return
	}
	if err := s.responses.Insert(ctx, resp); err != nil && !errors.Is(err, store.ErrConflict) {
		respondError(c, apperr.Server("response_log_failed", err))
		return
	}

	responses, err := s.loadCATResponses(ctx, session)
	if err != nil {
		respondError(c, apperr.Server("response_reload_failed", err))
		return
	}
	responses = append(responses, cat.Response{A: *item.A, B: *item.B, Correct: correct})

	excluded := append(append([]int64{}, session.ServedItems...), item.ID)
	pool, err := s.items.EligibleItems(ctx, store.ItemFilter{Excluded: excluded})
	if err != nil {
		respondError(c, apperr.Server("item_lookup_failed", err))
		return
	}
	candidates := cat.EligibleCandidates(pool, nil)

	itemsAdministered := session.ItemsAdministered + 1
	domainCounts := cloneDomainCounts(session.DomainCounts)
	bumpDomain(domainCounts, item.Domain, correct)

	advance := s.engine.Advance(responses, candidates, domainCounts, itemsAdministered)

	if advance.Stopped {
		if err := s.sessions.UpdateAdaptive(ctx, session.ID, advance.Theta, advance.SE, item.ID, item.Domain, correct, 0); err != nil {
			respondError(c, apperr.Server("session_update_failed", err))
			return
		}
		if err := s.sessions.Finalize(ctx, session.ID, advance.StoppingReason, advance.Theta, advance.SE, time.Now()); err != nil {
			respondError(c, apperr.Server("session_finalize_failed", err))
			return
		}
		result := s.engine.Finalize(session.ID, advance, itemsAdministered, domainCounts)
		dto := toResultDTO(result)
		if v, err := s.sessionValidity(ctx, append(append([]int64{}, session.ServedItems...), item.ID),
			append(append([]bool{}, session.ServedCorrect...), correct)); err == nil {
			dto.Validity = v
		}
		c.JSON(http.StatusOK, testNextResponse{
			TestComplete: true, ItemsAdministered: itemsAdministered,
			CurrentTheta: advance.Theta, CurrentSE: advance.SE,
			Result: &dto, StoppingReason: string(advance.StoppingReason),
		})
		return
	}

	if err := s.sessions.UpdateAdaptive(ctx, session.ID, advance.Theta, advance.SE, item.ID, item.Domain, correct, advance.Next.ID); err != nil {
		respondError(c, apperr.Server("session_update_failed", err))
		return
	}
	nextItems, err := s.items.ByIDs(ctx, []int64{advance.Next.ID})
	if err != nil || len(nextItems) == 0 {
		respondError(c, apperr.Server("item_lookup_failed", err))
		return
	}
	q := toQuestionDTO(nextItems[0])
	c.JSON(http.StatusOK, testNextResponse{
		TestComplete: false, NextQuestion: &q, ItemsAdministered: itemsAdministered,
		CurrentTheta: advance.Theta, CurrentSE: advance.SE,
	})
}

// handleTestSubmit is the fixed-form batch submission path: every answer
// is recorded, then the session is scored once and finalized.
func (s *Server) handleTestSubmit(c *gin.Context) {
	user := userFromContext(c)
	ctx := c.Request.Context()

	var req testSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("invalid_request", err.Error()))
		return
	}

	release, err := s.locker.Lock(ctx, req.SessionID)
	if err != nil {
		respondError(c, apperr.Server("lock_failed", err))
		return
	}
	defer release()

	session, err := s.sessions.Load(ctx, req.SessionID)
	if err != nil {
		respondError(c, apperr.NotFound("session_not_found", "session does not exist"))
		return
	}
	if session.UserID != user.ID {
		respondError(c, apperr.Authorization("forbidden", "session does not belong to this user"))
		return
	}
	if session.Terminal() {
		respondError(c, apperr.Conflict("session_terminal", "session has already ended"))
		return
	}

	ids := make([]int64, 0, len(req.Answers))
	for _, a := range req.Answers {
		ids = append(ids, a.QuestionID)
	}
	items, err := s.items.ByIDs(ctx, ids)
	if err != nil {
		respondError(c, apperr.Server("item_lookup_failed", err))
		return
	}
	byID := make(map[int64]*model.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	domainCounts := cloneDomainCounts(session.DomainCounts)
	tierCounts := make(map[model.DifficultyTier]*validity.TierOutcome)
	correctCount := 0
	administered := 0
	var finalTheta, finalSE float64
	var responses []cat.Response

	for _, a := range req.Answers {
		item, ok := byID[a.QuestionID]
		if !ok || session.HasServed(a.QuestionID) {
			continue
		}
		correct := a.UserAnswer == item.CorrectIdx
		latency := 0.0
		if a.TimeSpentSeconds != nil {
			latency = *a.TimeSpentSeconds
		}
		resp := &model.Response{
			UserID: user.ID, SessionID: session.ID, ItemID: item.ID,
			SubmittedAnswer: a.UserAnswer, Correct: correct,
			LatencySeconds: latency, AnsweredAt: time.Now(),
		}
		if err := s.sessions.AppendResponse(ctx, session.ID, item.ID, resp); err != nil && !errors.Is(err, store.ErrConflict) {
			respondError(c, apperr.Server("append_response_failed", err))
			return
		}
		if err := s.responses.Insert(ctx, resp); err != nil && !errors.Is(err, store.ErrConflict) {
			respondError(c, apperr.Server("response_log_failed", err))
			return
		}
		bumpDomain(domainCounts, item.Domain, correct)
		tallyTier(tierCounts, item.Difficulty, correct)
		if correct {
			correctCount++
		}
		administered++
		if item.A != nil && item.B != nil {
			responses = append(responses, cat.Response{A: *item.A, B: *item.B, Correct: correct})
		}
	}
	tierOutcomes := make([]validity.TierOutcome, 0, len(tierCounts))
	for _, o := range tierCounts {
		tierOutcomes = append(tierOutcomes, *o)
	}

	est := cat.EstimateEAP(responses)
	finalTheta, finalSE = est.Theta, est.SE

	if err := s.sessions.Finalize(ctx, session.ID, model.StopMaxItems, finalTheta, finalSE, time.Now()); err != nil {
		respondError(c, apperr.Server("session_finalize_failed", err))
		return
	}
	result := cat.ScoreResult(session.ID, finalTheta, finalSE, session.ItemsAdministered+administered, model.StopMaxItems, domainCounts)
	dto := toResultDTO(result)
	bucket := validity.Bucket(correctCount, administered)
	vReport := validity.Analyze(bucket, tierOutcomes)
	v := toValidityDTO(vReport)
	dto.Validity = &v
	c.JSON(http.StatusOK, testNextResponse{
		TestComplete: true, ItemsAdministered: session.ItemsAdministered + administered,
		CurrentTheta: finalTheta, CurrentSE: finalSE,
		Result: &dto, StoppingReason: string(model.StopMaxItems),
	})
}

// loadCATResponses reconstructs the cat.Response slice (item parameters
// + correctness) for every response already recorded in session, needed
// to re-run EAP estimation on each /test/next call. ServedCorrect is
// parallel to ServedItems (model.Session), both appended to in lockstep
// by store.Sessions.UpdateAdaptive.
func (s *Server) loadCATResponses(ctx context.Context, session *model.Session) ([]cat.Response, error) {
	if len(session.ServedItems) == 0 {
		return nil, nil
	}
	items, err := s.items.ByIDs(ctx, session.ServedItems)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*model.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	out := make([]cat.Response, 0, len(session.ServedItems))
	for i, id := range session.ServedItems {
		it, ok := byID[id]
		if !ok || it.A == nil || it.B == nil {
			continue
		}
		correct := i < len(session.ServedCorrect) && session.ServedCorrect[i]
		out = append(out, cat.Response{A: *it.A, B: *it.B, Correct: correct})
	}
	return out, nil
}

// tallyTier accumulates one item's outcome into its difficulty tier's
// running TierOutcome, creating the bucket on first use.
func tallyTier(counts map[model.DifficultyTier]*validity.TierOutcome, tier model.DifficultyTier, correct bool) {
	o, ok := counts[tier]
	if !ok {
		o = &validity.TierOutcome{Tier: tier}
		counts[tier] = o
	}
	o.Served++
	if correct {
		o.Correct++
	}
}

// sessionValidity re-derives the person-fit annotation (spec.md §4.J) for
// an adaptive session from its full served/correct history, loading item
// difficulty tiers fresh rather than persisting them alongside
// ServedItems — the same replay approach loadCATResponses uses for item
// parameters.
func (s *Server) sessionValidity(ctx context.Context, servedItems []int64, servedCorrect []bool) (*validityDTO, error) {
	items, err := s.items.ByIDs(ctx, servedItems)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*model.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	tierCounts := make(map[model.DifficultyTier]*validity.TierOutcome)
	correctCount, total := 0, 0
	for i, id := range servedItems {
		it, ok := byID[id]
		if !ok {
			continue
		}
		correct := i < len(servedCorrect) && servedCorrect[i]
		tallyTier(tierCounts, it.Difficulty, correct)
		if correct {
			correctCount++
		}
		total++
	}
	outcomes := make([]validity.TierOutcome, 0, len(tierCounts))
	for _, o := range tierCounts {
		outcomes = append(outcomes, *o)
	}

	bucket := validity.Bucket(correctCount, total)
	v := toValidityDTO(validity.Analyze(bucket, outcomes))
	return &v, nil
}

func cloneDomainCounts(in map[model.Domain]*model.DomainCount) map[model.Domain]*model.DomainCount {
	out := make(map[model.Domain]*model.DomainCount, len(in))
	for d, c := range in {
		cp := *c
		out[d] = &cp
	}
	return out
}

func bumpDomain(counts map[model.Domain]*model.DomainCount, domain model.Domain, correct bool) {
	c, ok := counts[domain]
	if !ok {
		c = &model.DomainCount{}
		counts[domain] = c
	}
	c.Served++
	if correct {
		c.Correct++
	}
}
