package response

// AppError 统一错误包装
type AppError struct {
	Code    int
	Key     string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError 包装错误，提示文案按 key 查找
func WrapError(code int, key string, err error) *AppError {
	return &AppError{
		Code:    code,
		Key:     key,
		Message: Message(key),
		Err:     err,
	}
}
