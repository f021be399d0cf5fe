package common

// Response 统一的 JSON 返回结构
type Response struct {
	Code      int         `json:"code"`
	Msg       string      `json:"msg"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

const (
	MsgSuccess  = "success"
	MsgNotReady = "Not ready"
	MsgNotFound = "Not Found"
)
