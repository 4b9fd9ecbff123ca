// Package scoring orchestrates one grading run: judgment, rubric
// reconciliation, integrity checks, and reference-pool matching feed
// the ensemble, and the outcome is recorded and folded into cluster
// progress.
package scoring

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/abhisek/rubrix/internal/catalog"
	"github.com/abhisek/rubrix/internal/embedding"
	"github.com/abhisek/rubrix/internal/ensemble"
	"github.com/abhisek/rubrix/internal/integrity"
	"github.com/abhisek/rubrix/internal/judge"
	"github.com/abhisek/rubrix/internal/reference"
	"github.com/abhisek/rubrix/internal/rubric"
	"github.com/abhisek/rubrix/internal/store"
	"github.com/abhisek/rubrix/internal/vectormath"
)

// Evaluator grades a submission. Satisfied by *judge.Judge.
type Evaluator interface {
	Evaluate(ctx context.Context, ex *catalog.Exercise, submission string) (*judge.Judgment, error)
}

// ReferenceMatcher resolves the comparison pool and accepts qualifying
// submissions into the bank. Satisfied by *reference.Matcher.
type ReferenceMatcher interface {
	MatchReferences(ctx context.Context, exerciseID string, embedding []float64, skillCategory string, difficulty catalog.Difficulty) (*reference.PoolResult, error)
	AddReferenceAnswer(ctx context.Context, a *reference.Answer) (bool, string, error)
}

// ClusterRecorder receives final scores asynchronously. Satisfied by
// *cluster.Analyzer.
type ClusterRecorder interface {
	Record(clusterID, primarySkill string, totalExercises int, score float64)
}

// Config tunes one Service.
type Config struct {
	Rubric   rubric.Config
	Ensemble ensemble.Config

	// ClusterQueueSize bounds the async cluster update queue. Updates
	// beyond the bound are dropped rather than blocking a scoring run.
	ClusterQueueSize int
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		Rubric:           rubric.DefaultConfig(),
		Ensemble:         ensemble.DefaultConfig(),
		ClusterQueueSize: 256,
	}
}

// Service wires the scoring pipeline together.
type Service struct {
	catalog  catalog.Catalog
	judge    Evaluator
	embedder embedding.Embedder
	matcher  ReferenceMatcher
	events   store.EventRepo
	cfg      Config

	clusterCh chan clusterUpdate
	done      chan struct{}
	closeOnce sync.Once
}

type clusterUpdate struct {
	clusterID    string
	primarySkill string
	score        float64
}

// NewService creates a Service. events may be nil when no persistence
// is wired; recorder may be nil when cluster tracking is off.
func NewService(cat catalog.Catalog, ev Evaluator, emb embedding.Embedder, matcher ReferenceMatcher, events store.EventRepo, recorder ClusterRecorder, cfg Config) *Service {
	if cfg.ClusterQueueSize <= 0 {
		cfg.ClusterQueueSize = 256
	}

	s := &Service{
		catalog:   cat,
		judge:     ev,
		embedder:  emb,
		matcher:   matcher,
		events:    events,
		cfg:       cfg,
		clusterCh: make(chan clusterUpdate, cfg.ClusterQueueSize),
		done:      make(chan struct{}),
	}

	go s.clusterWorker(recorder)
	return s
}

// Close stops the async cluster worker after draining pending updates.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.clusterCh)
		<-s.done
	})
}

func (s *Service) clusterWorker(recorder ClusterRecorder) {
	defer close(s.done)
	for u := range s.clusterCh {
		if recorder != nil {
			recorder.Record(u.clusterID, u.primarySkill, 0, u.score)
		}
	}
}

// Score runs the full pipeline for one submission.
func (s *Service) Score(ctx context.Context, req *Request) (*Result, error) {
	if req.Submission == "" {
		return nil, fmt.Errorf("submission is empty")
	}

	start := time.Now()

	ex, err := s.catalog.Get(ctx, req.ExerciseID)
	if err != nil {
		return nil, fmt.Errorf("lookup exercise: %w", err)
	}

	// The judgment and the embeddings are independent provider calls.
	var (
		wg       sync.WaitGroup
		judgment *judge.Judgment
		judgeErr error
		subVec   []float64
		exemVec  []float64
		embedErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		judgment, judgeErr = s.judge.Evaluate(ctx, ex, req.Submission)
	}()
	go func() {
		defer wg.Done()
		subVec, exemVec, embedErr = s.embed(ctx, ex, req.Submission)
	}()
	wg.Wait()

	if judgeErr != nil {
		return nil, fmt.Errorf("judgment: %w", judgeErr)
	}
	if embedErr != nil {
		// The pipeline degrades to judgment and rubric signals only.
		fmt.Fprintf(os.Stderr, "warning: embeddings unavailable: %v\n", embedErr)
		subVec, exemVec = nil, nil
	}

	similarity := exemplarSimilarity(subVec, exemVec)

	verdict := integrity.Detect(integrity.Input{
		Submission:          req.Submission,
		Exemplar:            ex.Exemplar,
		EmbeddingSimilarity: similarity,
		Duration:            req.Duration,
		ExpectedMinDuration: req.ExpectedMinDuration,
	})

	reconciled := rubric.Reconcile(ex.Rubric, judgment.Criteria, judgment.ClaimedScore, s.cfg.Rubric)
	blended := rubric.BlendedScore(reconciled.CorrectedScore, reconciled.Aggregation.Percentage, s.cfg.Rubric)

	pool := s.matchReferences(ctx, ex, subVec)

	sig := ensemble.Signals{
		JudgmentScore:          blended,
		ValidatorScore:         reconciled.Aggregation.Percentage,
		EmbeddingSimilarity:    similarity,
		HasExemplar:            ex.Exemplar != "" && subVec != nil,
		JudgmentWeightOverride: req.JudgmentWeightOverride,
		CrossValidationDelta:   req.CrossValidationDelta,
		Integrity:              &verdict,
	}
	if pool != nil {
		sig.ReferenceScore = pool.WeightedScore
		sig.ReferenceWeight = pool.EnsembleWeight
	}

	combined := ensemble.Combine(sig, s.cfg.Ensemble)

	result := &Result{
		Exercise:   ex,
		Judgment:   judgment,
		Rubric:     reconciled,
		Blended:    blended,
		Integrity:  verdict,
		References: pool,
		Ensemble:   combined,
		Elapsed:    time.Since(start),
	}

	s.maybeBankReference(ctx, ex, req.Submission, subVec, result)
	s.recordEvent(ctx, ex, result)
	s.dispatchCluster(req, ex, result)

	return result, nil
}

// embed fetches the submission vector and, when an exemplar exists,
// the exemplar vector in the same provider call.
func (s *Service) embed(ctx context.Context, ex *catalog.Exercise, submission string) (subVec, exemVec []float64, err error) {
	if s.embedder == nil {
		return nil, nil, nil
	}

	texts := []string{submission}
	if ex.Exemplar != "" {
		texts = append(texts, ex.Exemplar)
	}

	vecs, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, nil, err
	}
	if len(vecs) != len(texts) {
		return nil, nil, fmt.Errorf("embedding count mismatch: %d texts, %d vectors", len(texts), len(vecs))
	}

	subVec = vecs[0]
	if ex.Exemplar != "" {
		exemVec = vecs[1]
	}
	return subVec, exemVec, nil
}

func (s *Service) matchReferences(ctx context.Context, ex *catalog.Exercise, subVec []float64) *reference.PoolResult {
	if s.matcher == nil || subVec == nil {
		return nil
	}

	pool, err := s.matcher.MatchReferences(ctx, ex.ID, subVec, ex.SkillCategory, ex.Difficulty)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: reference matching failed: %v\n", err)
		return nil
	}
	return pool
}

// maybeBankReference offers a clean, high-quality submission to the
// reference bank. Flagged or risky submissions never enter the pool.
func (s *Service) maybeBankReference(ctx context.Context, ex *catalog.Exercise, submission string, subVec []float64, result *Result) {
	if s.matcher == nil || subVec == nil {
		return
	}
	if result.Integrity.RiskLevel != integrity.RiskLow || len(result.Integrity.Flags) > 0 {
		return
	}
	if !result.Rubric.IsValid {
		return
	}

	added, reason, err := s.matcher.AddReferenceAnswer(ctx, &reference.Answer{
		ExerciseID:     ex.ID,
		SubmissionText: submission,
		Score:          float64(result.Ensemble.FinalScore),
		Embedding:      subVec,
		SourceKind:     reference.SourceLearner,
		SkillCategory:  ex.SkillCategory,
		Difficulty:     ex.Difficulty,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: reference insert failed: %v\n", err)
		return
	}
	result.BankedAsReference = added
	result.BankDecision = reason
}

func (s *Service) recordEvent(ctx context.Context, ex *catalog.Exercise, result *Result) {
	if s.events == nil {
		return
	}

	data := store.ScoringEventData{
		ExerciseID:     ex.ID,
		FinalScore:     float64(result.Ensemble.FinalScore),
		Confidence:     float64(result.Ensemble.Confidence),
		ConfidenceBand: string(result.Ensemble.ConfidenceBand),
		RiskLevel:      string(result.Integrity.RiskLevel),
		IntegrityFlags: result.Integrity.Flags,
		RubricErrors:   len(result.Rubric.Errors()),
		LatencyMs:      result.Elapsed.Milliseconds(),
	}
	if result.References != nil {
		data.ReferencePoolSize = result.References.PoolSize
		data.CrossExerciseFallback = result.References.UsedCrossExerciseFallback
	}

	if err := s.events.AppendScoring(ctx, data); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to record scoring event: %v\n", err)
	}
}

// dispatchCluster queues the cluster update without blocking; a full
// queue drops the update.
func (s *Service) dispatchCluster(req *Request, ex *catalog.Exercise, result *Result) {
	clusterID := req.ClusterID
	if clusterID == "" {
		clusterID = ex.SkillCategory
	}

	select {
	case s.clusterCh <- clusterUpdate{
		clusterID:    clusterID,
		primarySkill: ex.SkillCategory,
		score:        float64(result.Ensemble.FinalScore),
	}:
	default:
	}
}

func exemplarSimilarity(subVec, exemVec []float64) float64 {
	if subVec == nil || exemVec == nil {
		return 0
	}
	return vectormath.ClampedSimilarity(subVec, exemVec)
}
