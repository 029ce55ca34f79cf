package cwl

import "testing"

func TestIsDynamic(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{value: "*.txt", want: false},
		{value: "file.txt", want: true},
		{value: "inputs.size", want: true},
		{value: "a[0].path", want: true},
		{value: ".hidden", want: false},
		{value: "a.été", want: false},
		{value: "café.txt", want: false},
		{value: "trailing.", want: false},
		{value: "$job.inputs.size", want: true},
		{value: "'quoted'", want: true},
		{value: "out", want: false},
		{value: "--verbose", want: false},
		{value: 30, want: false},
		{value: 1000, want: false},
		{value: 0.5, want: false},
		{value: -1.25, want: false},
		{value: true, want: false},
		{value: "", want: false},
	}
	for _, tt := range tests {
		if got := IsDynamic(tt.value); got != tt.want {
			t.Errorf("IsDynamic(%#v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestClassifierClassify(t *testing.T) {
	c := Classifier{Engine: "#engine"}

	lit, dynamic := c.Classify("out")
	if dynamic || lit != "out" {
		t.Fatalf("Classify(out) = %v, %v; want literal", lit, dynamic)
	}

	v, dynamic := c.Classify("$job.x")
	if !dynamic {
		t.Fatal("Classify($job.x) dynamic = false, want true")
	}
	e, ok := v.(Expression)
	if !ok {
		t.Fatalf("Classify($job.x) = %T, want Expression", v)
	}
	if e.Engine != "#engine" || e.Script != "$job.x" {
		t.Fatalf("Expression = %+v", e)
	}
}

func TestClassifierBindsExplicitExpression(t *testing.T) {
	c := Classifier{Engine: "#engine"}

	v, dynamic := c.Classify(Expression{Script: "1 + 1"})
	if !dynamic {
		t.Fatal("dynamic = false, want true")
	}
	if e := v.(Expression); e.Engine != "#engine" || e.Script != "1 + 1" {
		t.Fatalf("Expression = %+v", e)
	}

	v, _ = c.Classify(Expression{Engine: "#other", Script: "x"})
	if e := v.(Expression); e.Engine != "#engine" || e.Script != "x" {
		t.Fatalf("Expression = %+v, want engine #engine", e)
	}
}
