package storage

import (
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"eliteapply/internal/database"
)

const resumePrefix = "resumes"

// NewResumeObjectKey 生成用户简历 PDF 的对象 Key：resumes/<userID>/<uuid>.pdf。
func NewResumeObjectKey(userID database.UserID) string {
	return fmt.Sprintf("%s/%d/%s.pdf", resumePrefix, userID, uuid.NewString())
}

// IsResumeObjectKeyOf 校验对象 Key 属于指定用户且格式合法，防止登记他人的文件。
func IsResumeObjectKeyOf(userID database.UserID, key string) bool {
	if key == "" || !utf8.ValidString(key) || len(key) > 200 {
		return false
	}
	expected := fmt.Sprintf("%s/%d/", resumePrefix, userID)
	if !strings.HasPrefix(key, expected) {
		return false
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || strings.Contains(key, "//") {
		return false
	}
	rest := strings.TrimPrefix(key, expected)
	if rest == "" || strings.Contains(rest, "/") {
		return false
	}
	return strings.EqualFold(path.Ext(rest), ".pdf")
}
