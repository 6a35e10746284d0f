package core

import "testing"

func TestParseFormats(t *testing.T) {
	data := []byte(`{
		"id": "abc",
		"formats": [
			{"format_id": "140", "ext": "m4a", "vcodec": "none", "height": null},
			{"format_id": "18", "ext": "mp4", "vcodec": "avc1", "height": 360, "fps": 30},
			{"format_id": "137", "ext": "mp4", "vcodec": "avc1", "height": 1080, "fps": 29.97},
			{"format_id": "248", "ext": "webm", "vcodec": "vp9", "height": 1080, "fps": 30},
			{"format_id": "136", "ext": "mp4", "vcodec": "avc1", "height": 720, "fps": 60},
			{"format_id": "hls-meta", "ext": "mp4"}
		]
	}`)

	formats, err := parseFormats(data)
	if err != nil {
		t.Fatalf("parseFormats() error = %v", err)
	}

	expected := []Format{
		{FormatID: "137", Label: "1080p 29.97fps", Height: 1080},
		{FormatID: "136", Label: "720p 60fps", Height: 720},
		{FormatID: "18", Label: "360p 30fps", Height: 360},
		{FormatID: "hls-meta", Label: "hls-meta"},
	}
	if len(formats) != len(expected) {
		t.Fatalf("Expected %d formats, got %d: %+v", len(expected), len(formats), formats)
	}
	for i := range expected {
		if formats[i] != expected[i] {
			t.Errorf("formats[%d] = %+v, expected %+v", i, formats[i], expected[i])
		}
	}
}

func TestParseFormatsInvalidJSON(t *testing.T) {
	if _, err := parseFormats([]byte("ERROR: not json")); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestParseFormatsNoFormats(t *testing.T) {
	formats, err := parseFormats([]byte(`{"id":"x"}`))
	if err != nil {
		t.Fatalf("parseFormats() error = %v", err)
	}
	if len(formats) != 0 {
		t.Errorf("Expected no formats, got %+v", formats)
	}
}
