package handlers

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text      string
		wantKind  commandKind
		wantTitle string
	}{
		{"追加 買い物", cmdAdd, "買い物"},
		{"add Buy milk", cmdAdd, "Buy milk"},
		{"ADD   \"quoted\"", cmdAdd, "quoted"},
		{"追加　全角スペース", cmdAdd, "全角スペース"},
		{"一覧", cmdList, ""},
		{"List", cmdList, ""},
		{"sync", cmdSync, ""},
		{"同期", cmdSync, ""},
		{"help", cmdHelp, ""},
		{"add", cmdNone, ""},
		{`add " "`, cmdAdd, ""},
		{"hello", cmdNone, ""},
	}

	for _, tt := range tests {
		kind, title := parseCommand(tt.text)
		if kind != tt.wantKind || title != tt.wantTitle {
			t.Errorf("parseCommand(%q) = (%v, %q), want (%v, %q)", tt.text, kind, title, tt.wantKind, tt.wantTitle)
		}
	}
}

func TestTruncateLabel(t *testing.T) {
	long := "あいうえおかきくけこさしすせそたちつてとなにぬねの"
	if got := []rune(truncateLabel(long)); len(got) != maxLabelRunes {
		t.Errorf("expected %d runes, got %d", maxLabelRunes, len(got))
	}
	if truncateLabel("削除 1") != "削除 1" {
		t.Error("short labels should be unchanged")
	}
}
