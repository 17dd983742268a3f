package service

import (
	"errors"
	"testing"

	appErrors "murmur.chat.web/pkg/errors"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name        string
		recipientID int64
		groupID     int64
		wantErr     bool
		wantGroup   bool
	}{
		{"私聊目标", 101, 0, false, false},
		{"群聊目标", 0, 201, false, true},
		{"两者皆无", 0, 0, true, false},
		{"两者皆有", 101, 201, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := ParseTarget(tt.recipientID, tt.groupID)
			if tt.wantErr {
				if !errors.Is(err, appErrors.ErrMessageTarget) {
					t.Errorf("期望 ErrMessageTarget，实际 %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("解析失败: %v", err)
			}
			if !target.Valid() {
				t.Error("目标应有效")
			}
			if target.IsGroup() != tt.wantGroup {
				t.Errorf("IsGroup() = %v, 期望 %v", target.IsGroup(), tt.wantGroup)
			}
		})
	}
}

func TestTargetZeroValueInvalid(t *testing.T) {
	var target Target
	if target.Valid() {
		t.Error("零值目标不应有效")
	}
}
