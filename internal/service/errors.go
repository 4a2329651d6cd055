package service

import "errors"

// 服务层的业务错误，由 HTTP 处理器翻译成响应状态码
var (
	// ErrAuthenticationFailed 表示认证失败（用户名或密码错误）
	ErrAuthenticationFailed = errors.New("service: authentication failed")
	// ErrRegistrationFailed 表示注册失败（例如用户名已存在）
	ErrRegistrationFailed = errors.New("service: registration failed")
	// ErrInternalServer 表示服务内部错误
	ErrInternalServer = errors.New("service: internal server error")

	// ErrProjectNotFound 表示项目不存在
	ErrProjectNotFound = errors.New("service: project not found")
	// ErrVoteNotFound 表示投票不存在
	ErrVoteNotFound = errors.New("service: vote not found")
	// ErrInvalidVote 表示投票请求不合法（问题为空、选项不足、下标越界）
	ErrInvalidVote = errors.New("service: invalid vote request")
)
