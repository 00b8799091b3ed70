package errcode

// 错误码约定：
// - 0：无错误
// - 4xxx：输入或上游内容问题（用户可通过重新上传/重试恢复）
// - 5xxx：系统错误
const (
	OK              = 0
	ResourceMissing = 4004
	UnreadableFile  = 4022
	SystemError     = 5000
	UpstreamFailure = 5020
)
