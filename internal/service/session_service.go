package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"jumpahead_backend/internal/model"
	"jumpahead_backend/internal/repository"
	"jumpahead_backend/internal/util"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SessionState 学习会话生命周期状态
type SessionState string

const (
	StateUninitialized SessionState = "uninitialized"
	StateLoading       SessionState = "loading"
	StateResuming      SessionState = "resuming"
	StateStarting      SessionState = "starting"
	StateActive        SessionState = "active"
	StateEvaluating    SessionState = "evaluating"
	StateCompleted     SessionState = "completed"
)

// Session 一个 (学生, 模块) 的活动会话。持久层是权威存储，
// 内存态只在服务进程内加速并做并发串行化
type Session struct {
	mu sync.Mutex

	State      SessionState
	Module     *model.LearningModule
	Enrollment *model.ModuleEnrollment
	Turns      []model.Turn
	Evaluation *model.Evaluation // 最近一次成功解析的评价，可能为 nil
	EvalText   string
	AvgScore   *float64
}

// SessionView 会话快照，控制器序列化后返回前端
type SessionView struct {
	State       SessionState       `json:"state"`
	ModuleID    string             `json:"moduleId"`
	Status      model.ModuleStatus `json:"status"`
	Turns       []model.Turn       `json:"turns"`
	Evaluation  string             `json:"evaluation"`
	AvgScore    *float64           `json:"avgScore"`
	CompletedAt *time.Time         `json:"completedAt,omitempty"`
}

// SessionService 学习会话编排：加载/恢复、对话轮次、评价与合并、
// 完成判定。AI 客户端以接口注入
type SessionService struct {
	moduleRepo *repository.ModuleRepository
	enrollRepo *repository.ModuleEnrollmentRepository
	ai         ChatClient
	knowledge  *KnowledgeService

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionService(
	moduleRepo *repository.ModuleRepository,
	enrollRepo *repository.ModuleEnrollmentRepository,
	ai ChatClient,
	knowledge *KnowledgeService,
) *SessionService {
	return &SessionService{
		moduleRepo: moduleRepo,
		enrollRepo: enrollRepo,
		ai:         ai,
		knowledge:  knowledge,
		sessions:   make(map[string]*Session),
	}
}

func sessionKey(userID uint, moduleID string) string {
	return fmt.Sprintf("%d:%s", userID, moduleID)
}

func (s *SessionService) session(userID uint, moduleID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sessionKey(userID, moduleID)
	sess, ok := s.sessions[key]
	if !ok {
		sess = &Session{State: StateUninitialized}
		s.sessions[key] = sess
	}
	return sess
}

// LoadSession 打开会话。已有保存历史则原样恢复（幂等，不调 AI 不写库）；
// 否则建立选课记录、生成开场白并落库。开场 AI 调用失败降级为固定问候，
// 会话照常开始
func (s *SessionService) LoadSession(ctx context.Context, userID uint, moduleID string) (*SessionView, error) {
	module, err := s.moduleRepo.FindByID(moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrModuleNotFound
		}
		return nil, err
	}

	sess := s.session(userID, moduleID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.State = StateLoading
	sess.Module = module

	enrollment, err := s.enrollRepo.FindByUserAndModule(userID, moduleID)
	if err == nil && enrollment.SavedChatHistory != "" {
		// 恢复：保存的历史与评价原样回放
		sess.State = StateResuming
		turns, derr := repository.DecodeHistory(enrollment)
		if derr != nil {
			zap.L().Error("保存的对话历史损坏，按新会话处理",
				zap.Uint("user_id", userID),
				zap.String("module_id", moduleID),
				zap.Error(derr))
		} else {
			sess.Enrollment = enrollment
			sess.Turns = turns
			sess.EvalText = enrollment.SavedEvaluation
			sess.AvgScore = enrollment.SavedAvgScore
			if enrollment.SavedEvaluation != "" {
				if eval, perr := ParseEvaluation(enrollment.SavedEvaluation); perr == nil {
					sess.Evaluation = eval
				}
			}
			sess.State = s.activeState(enrollment)
			return s.view(moduleID, sess), nil
		}
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		sess.State = StateUninitialized
		return nil, err
	}

	// 新会话
	sess.State = StateStarting
	enrollment, err = s.enrollRepo.EnsureStarted(userID, moduleID)
	if err != nil {
		sess.State = StateUninitialized
		return nil, err
	}
	sess.Enrollment = enrollment

	greeting, err := s.ai.Chat(ctx, PurposeSessionOpen, []ChatMessage{
		{Role: "system", Content: sessionOpenSystemPrompt},
		{Role: "user", Content: sessionOpenPrompt(module.Description)},
	}, openMaxTokens, openTemperature)
	if err != nil {
		zap.L().Warn("开场白生成失败，使用固定问候",
			zap.String("module_id", moduleID),
			zap.Error(err))
		greeting = fallbackGreeting
	}

	sess.Turns = []model.Turn{{Role: model.TurnAssistant, Content: greeting}}
	sess.Evaluation = nil
	sess.EvalText = ""
	sess.AvgScore = nil

	if err := s.persist(sess); err != nil {
		sess.State = StateUninitialized
		return nil, err
	}

	sess.State = StateActive
	return s.view(moduleID, sess), nil
}

// AppendTurn 学生发言一轮。学生消息先入历史；助教回复生成失败时
// 用致歉话术占位，学生输入不丢失。已完成的模块拒绝新轮次
func (s *SessionService) AppendTurn(ctx context.Context, userID uint, moduleID, content, imageURL string) (*SessionView, error) {
	if strings.TrimSpace(content) == "" {
		return nil, util.ErrEmptyInput
	}

	sess, err := s.loadedSession(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Enrollment.Status == model.ModuleCompleted {
		return nil, util.ErrAlreadyCompleted
	}

	sess.Turns = append(sess.Turns, model.Turn{
		Role:     model.TurnStudent,
		Content:  content,
		ImageURL: imageURL,
	})

	knowledgeText := s.knowledge.FetchAll(ctx, s.moduleRepo.KnowledgeSourceURLs(sess.Module))
	historyJSON, _ := json.Marshal(sess.Turns)

	reply, err := s.ai.Chat(ctx, PurposeTutorTurn, []ChatMessage{
		{Role: "system", Content: tutorTurnSystemPrompt(sess.Module.Description, string(historyJSON), sess.EvalText, knowledgeText)},
		{Role: "user", Content: content},
	}, turnMaxTokens, turnTemperature)
	if err != nil {
		zap.L().Warn("助教回复生成失败",
			zap.String("module_id", moduleID),
			zap.Error(err))
		reply = fallbackTutorReply
	}

	sess.Turns = append(sess.Turns, model.Turn{Role: model.TurnAssistant, Content: reply})

	if err := s.persist(sess); err != nil {
		return nil, err
	}
	return s.view(moduleID, sess), nil
}

// Evaluate 对最近一次学生发言做评价，与既有评价合并后持久化，
// 平均分达标则单向置完成。AI 或解析失败时既有评价保持不变
func (s *SessionService) Evaluate(ctx context.Context, userID uint, moduleID string) (*SessionView, error) {
	sess, err := s.loadedSession(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	studentTurn, tutorQuestion, ok := latestExchange(sess.Turns)
	if !ok {
		return nil, util.ErrNoStudentTurn
	}

	prevState := sess.State
	sess.State = StateEvaluating
	defer func() { sess.State = prevState }()

	rawEval, err := s.ai.Chat(ctx, PurposeEvaluate, []ChatMessage{
		{Role: "user", Content: evaluationPrompt(sess.Module.Description, tutorQuestion, studentTurn.Content)},
	}, evaluateMaxTokens, evaluateTemperature)
	if err != nil {
		return nil, err
	}

	latest, err := ParseEvaluation(rawEval)
	if err != nil {
		zap.L().Warn("评价文本解析失败，保留既有评价",
			zap.String("module_id", moduleID),
			zap.Error(err))
		return nil, err
	}

	merged := latest
	if sess.Evaluation != nil {
		merged = s.merge(ctx, moduleID, sess.Evaluation, latest)
	}

	sess.Evaluation = merged
	sess.EvalText = merged.RawText
	avg := merged.Average
	sess.AvgScore = &avg

	// 完成判定单向：达标后不再回退
	if avg >= completionThreshold && sess.Enrollment.Status != model.ModuleCompleted {
		now := time.Now()
		sess.Enrollment.Status = model.ModuleCompleted
		sess.Enrollment.CompletedAt = &now
		zap.L().Info("学习模块完成",
			zap.Uint("user_id", userID),
			zap.String("module_id", moduleID),
			zap.Float64("avg_score", avg))
	}

	if err := s.persist(sess); err != nil {
		return nil, err
	}

	if sess.Enrollment.Status == model.ModuleCompleted {
		prevState = StateCompleted
	}
	return s.view(moduleID, sess), nil
}

// merge 请求 AI 合并两份评价；返回不可解析时退回确定性合并，
// 保证合并总能得到结构化结果
func (s *SessionService) merge(ctx context.Context, moduleID string, current, latest *model.Evaluation) *model.Evaluation {
	raw, err := s.ai.Chat(ctx, PurposeMerge, []ChatMessage{
		{Role: "user", Content: mergeEvaluationsPrompt(current.RawText, latest.RawText)},
	}, mergeMaxTokens, mergeTemperature)
	if err == nil {
		if merged, perr := ParseEvaluation(raw); perr == nil {
			return merged
		}
		zap.L().Warn("AI 合并结果不可解析，改用本地合并",
			zap.String("module_id", moduleID))
	} else {
		zap.L().Warn("AI 合并调用失败，改用本地合并",
			zap.String("module_id", moduleID),
			zap.Error(err))
	}
	return MergeEvaluations(current, latest)
}

// Save 显式保存当前会话，不做状态迁移。前端离开页面时调用
func (s *SessionService) Save(ctx context.Context, userID uint, moduleID string) (*SessionView, error) {
	sess, err := s.loadedSession(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.persist(sess); err != nil {
		return nil, err
	}
	return s.view(moduleID, sess), nil
}

// GetEvaluation 当前评价快照
func (s *SessionService) GetEvaluation(ctx context.Context, userID uint, moduleID string) (*SessionView, error) {
	sess, err := s.loadedSession(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(moduleID, sess), nil
}

// loadedSession 取已加载会话；内存态缺失（进程重启）时从持久层重建
func (s *SessionService) loadedSession(ctx context.Context, userID uint, moduleID string) (*Session, error) {
	sess := s.session(userID, moduleID)
	sess.mu.Lock()
	loaded := sess.State != StateUninitialized && sess.Enrollment != nil
	sess.mu.Unlock()
	if loaded {
		return sess, nil
	}

	if _, err := s.LoadSession(ctx, userID, moduleID); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SessionService) activeState(enrollment *model.ModuleEnrollment) SessionState {
	if enrollment.Status == model.ModuleCompleted {
		return StateCompleted
	}
	return StateActive
}

// persist 将会话内存态写入持久层，以 (user_id, learning_module_id) 幂等
func (s *SessionService) persist(sess *Session) error {
	history, err := repository.EncodeHistory(sess.Turns)
	if err != nil {
		return err
	}
	sess.Enrollment.SavedChatHistory = history
	sess.Enrollment.SavedEvaluation = sess.EvalText
	sess.Enrollment.SavedAvgScore = sess.AvgScore
	return s.enrollRepo.Upsert(sess.Enrollment)
}

func (s *SessionService) view(moduleID string, sess *Session) *SessionView {
	turns := make([]model.Turn, len(sess.Turns))
	copy(turns, sess.Turns)
	return &SessionView{
		State:       s.activeState(sess.Enrollment),
		ModuleID:    moduleID,
		Status:      sess.Enrollment.Status,
		Turns:       turns,
		Evaluation:  sess.EvalText,
		AvgScore:    sess.AvgScore,
		CompletedAt: sess.Enrollment.CompletedAt,
	}
}

// latestExchange 找最近的学生发言及其前最近的助教提问。
// 没有助教提问时用合成问题兜底
func latestExchange(turns []model.Turn) (student model.Turn, tutorQuestion string, ok bool) {
	studentIdx := -1
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == model.TurnStudent {
			studentIdx = i
			break
		}
	}
	if studentIdx < 0 {
		return model.Turn{}, "", false
	}

	tutorQuestion = defaultEvaluationQuestion
	for i := studentIdx - 1; i >= 0; i-- {
		if turns[i].Role == model.TurnAssistant {
			tutorQuestion = turns[i].Content
			break
		}
	}
	return turns[studentIdx], tutorQuestion, true
}
