package core

import "fmt"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - 参数错误：INVALID_PARAMETER（λ、top_k、n_items 越界）
//   - 向量错误：DEGENERATE_VECTOR（零范数向量）、DIMENSION_MISMATCH（维度不一致）
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
type DomainError struct {
	Code    string // 错误代码（如 "INVALID_PARAMETER", "NOT_FOUND"）
	Message string // 错误消息
	Module  string // 模块名称（如 "rerank", "model", "store"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*DomainError)
	return ok
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
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

// NewDomainErrorf 创建带格式化消息的领域错误
func NewDomainErrorf(module, code, format string, args ...any) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// 重排/向量相关错误代码
	ErrorCodeInvalidParameter  = "INVALID_PARAMETER"  // 配置参数越界（λ、top_k、n_items）
	ErrorCodeDegenerateVector  = "DEGENERATE_VECTOR"  // 零范数向量，余弦相似度未定义
	ErrorCodeDimensionMismatch = "DIMENSION_MISMATCH" // 向量维度或矩阵形状不一致
)

// 模块名称常量
const (
	ModuleStore   = "store"   // 存储模块
	ModuleRecall  = "recall"  // 召回模块
	ModuleRank    = "rank"    // 排序模块
	ModuleRerank  = "rerank"  // 重排模块
	ModuleModel   = "model"   // 模型模块
	ModuleDataset = "dataset" // 数据集模块
	ModuleMetrics = "metrics" // 指标模块
	ModuleRunner  = "runner"  // 运行器模块
)

// 通用错误检查函数

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotSupported
	}
	return false
}

// IsInvalidParameter 检查错误是否为 INVALID_PARAMETER
func IsInvalidParameter(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidParameter
	}
	return false
}

// IsDegenerateVector 检查错误是否为 DEGENERATE_VECTOR
func IsDegenerateVector(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeDegenerateVector
	}
	return false
}

// IsDimensionMismatch 检查错误是否为 DIMENSION_MISMATCH
func IsDimensionMismatch(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeDimensionMismatch
	}
	return false
}
