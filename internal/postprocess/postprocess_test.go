package postprocess

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"clean text untouched", "Haga clic para continuar.", "Haga clic para continuar."},
		{"thinking block removed", "<thinking>translate this</thinking>Hola", "Hola"},
		{"reasoning block removed", "Inicio<reasoning>grammar check</reasoning>Fin", "InicioFin"},
		{"truncated block removed", "Hola<thinking>cut off mid", "Hola"},
		{"multiple blocks", "<think>a</think>middle<think>b</think>", "middle"},
		{"preamble removed", "Here's the translation: Hola mundo", "Hola mundo"},
		{"refined preamble removed", "The refined translation: Listo", "Listo"},
		{"polite preamble removed", "Sure, here's the polished translation: Listo", "Listo"},
		{"preamble mid-text kept", "Antes Here's the translation: Después", "Antes Here's the translation: Después"},
		{"preamble without colon kept", "Here's the translation text", "Here's the translation text"},
		{"double quotes unwrapped", `"Hola mundo"`, "Hola mundo"},
		{"guillemets unwrapped", "«Hola mundo»", "Hola mundo"},
		{"curly quotes unwrapped", "“Hola mundo”", "Hola mundo"},
		{"mismatched quotes kept", `"Hola mundo'`, `"Hola mundo'`},
		{"inner quotes survive", `"Dijo "hola""`, `Dijo "hola"`},
		{"full pipeline", "<thinking>hmm</thinking>Here's the translation:\n\"Texto traducido\"", "Texto traducido"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
