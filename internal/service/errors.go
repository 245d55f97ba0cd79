package service

import (
	"errors"
)

// 错误分类：handler 层用 errors.Is 映射到 HTTP 状态码
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("already exists")
	ErrValidation = errors.New("validation failed")
)
