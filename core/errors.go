package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），可穿透 fmt.Errorf("%w") 包装
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "UNAVAILABLE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "matrix", "interaction"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误链中是否包含 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeStale         = "STALE"          // 数据已过期（需要重建）
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleStore       = "store"       // KV 存储
	ModuleMatrix      = "matrix"      // 相似度矩阵
	ModuleRecommend   = "recommend"   // 推荐
	ModuleInteraction = "interaction" // 交互存储
	ModuleCatalog     = "catalog"     // scheme 快照
)

var (
	// ErrSchemeNotFound 表示 scheme 不在矩阵索引中（例如矩阵构建之后才新增的 scheme）
	ErrSchemeNotFound = NewDomainError(ModuleRecommend, ErrorCodeNotFound, "recommend: scheme not in similarity index")

	// ErrMatrixUnavailable 表示相似度矩阵不存在或无法读取
	ErrMatrixUnavailable = NewDomainError(ModuleMatrix, ErrorCodeUnavailable, "matrix: similarity matrix unavailable")

	// ErrMatrixStale 表示矩阵维度与当前 scheme 数量不一致，需要重建
	ErrMatrixStale = NewDomainError(ModuleMatrix, ErrorCodeStale, "matrix: dimension does not match catalog")

	// ErrInvalidEventKind 表示未知的交互事件类型
	ErrInvalidEventKind = NewDomainError(ModuleInteraction, ErrorCodeInvalidInput, "interaction: unknown event kind")

	// ErrMissingUser 表示需要用户身份的操作缺少 user id
	ErrMissingUser = NewDomainError(ModuleInteraction, ErrorCodeInvalidInput, "interaction: missing user id")

	// ErrCatalogSchemeNotFound 表示 scheme 不在快照中
	ErrCatalogSchemeNotFound = NewDomainError(ModuleCatalog, ErrorCodeNotFound, "catalog: scheme not found")
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsUnavailable 检查错误是否为 UNAVAILABLE 或 STALE（两者都可降级处理）
func IsUnavailable(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeUnavailable || domainErr.Code == ErrorCodeStale
	}
	return false
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidInput
	}
	return false
}
