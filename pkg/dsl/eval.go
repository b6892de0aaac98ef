package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/schemekit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once

	// programs 缓存已编译的表达式，key 为表达式原文
	programs sync.Map
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("scheme", cel.DynType),
		cel.Variable("user", cel.DynType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译后的 scheme 过滤表达式，可并发复用。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：scheme.state_id == 7 / scheme.funding_pattern.contains("central")
//   - 列表："scholarship" in scheme.tags / scheme.sponsor_ids.exists(s, s == 3)
//   - 用户：scheme.state_id == user.state_id
//   - 时间：scheme.introduced_on > 1700000000（unix 秒）
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式；同一表达式只编译一次。
func Compile(expr string) (*Program, error) {
	if cached, ok := programs.Load(expr); ok {
		return cached.(*Program), nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("expression must return boolean, got %s", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	p := &Program{expr: expr, prg: prg}
	programs.Store(expr, p)
	return p, nil
}

// Expr 返回表达式原文。
func (p *Program) Expr() string {
	return p.expr
}

// Match 对单个 scheme 求值。
func (p *Program) Match(s *core.Scheme, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(map[string]any{
		"scheme": schemeInput(s),
		"user":   userInput(rctx),
	})
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// schemeInput 构建 CEL 表达式的 scheme 输入
func schemeInput(s *core.Scheme) map[string]any {
	if s == nil {
		return map[string]any{}
	}
	tags := make([]any, 0, len(s.Tags))
	for _, t := range s.Tags {
		tags = append(tags, t.Name)
	}
	sponsorIDs := make([]any, 0, len(s.SponsorIDs))
	for _, id := range s.SponsorIDs {
		sponsorIDs = append(sponsorIDs, id)
	}
	var introduced int64
	if !s.IntroducedOn.IsZero() {
		introduced = s.IntroducedOn.Unix()
	}
	return map[string]any{
		"id":                s.ID,
		"title":             s.Title,
		"description":       s.Description,
		"funding_pattern":   s.FundingPattern,
		"tags":              tags,
		"beneficiary_types": toAnySlice(s.BeneficiaryTypes),
		"sponsor_ids":       sponsorIDs,
		"sponsor_types":     toAnySlice(s.SponsorTypes),
		"department_id":     s.DepartmentID,
		"department_name":   s.DepartmentName,
		"state_id":          s.StateID,
		"introduced_on":     introduced,
		"active":            s.Active,
	}
}

// userInput 构建 CEL 表达式的 user 输入；匿名请求得到 user_id == 0
func userInput(rctx *core.RecommendContext) map[string]any {
	user := map[string]any{
		"user_id":    int64(0),
		"state_id":   int64(0),
		"attributes": map[string]any{},
	}
	if rctx == nil {
		return user
	}
	user["user_id"] = rctx.UserID
	if p := rctx.User; p != nil {
		user["state_id"] = p.StateID
		attrs := make(map[string]any, len(p.Attributes))
		for k, v := range p.Attributes {
			attrs[k] = v
		}
		user["attributes"] = attrs
	}
	return user
}

func toAnySlice(in []string) []any {
	out := make([]any, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}
