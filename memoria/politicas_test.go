package memoria

import "testing"

func ocupado(indice, carga, referencia int) Marco {
	return Marco{Indice: indice, Ocupado: true, Carga: carga, UltimaReferencia: referencia}
}

func TestElegirVictima(t *testing.T) {
	tests := []struct {
		name   string
		marcos []Marco
		fifo   int
		lru    int
	}{
		{
			name:   "cargas y referencias distintas",
			marcos: []Marco{ocupado(0, 5, 9), ocupado(1, 2, 20), ocupado(2, 7, 8)},
			fifo:   1,
			lru:    2,
		},
		{
			name:   "empate va al menor índice",
			marcos: []Marco{ocupado(0, 4, 6), ocupado(1, 3, 6), ocupado(2, 3, 6)},
			fifo:   1,
			lru:    0,
		},
		{
			name:   "ignora marcos libres",
			marcos: []Marco{{Indice: 0}, ocupado(1, 10, 10), {Indice: 2}, ocupado(3, 11, 1)},
			fifo:   1,
			lru:    3,
		},
		{
			name:   "sin marcos ocupados",
			marcos: []Marco{{Indice: 0}, {Indice: 1}},
			fifo:   -1,
			lru:    -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (PoliticaFIFO{}).ElegirVictima(tt.marcos); got != tt.fifo {
				t.Errorf("FIFO got %d, want %d", got, tt.fifo)
			}
			if got := (PoliticaLRU{}).ElegirVictima(tt.marcos); got != tt.lru {
				t.Errorf("LRU got %d, want %d", got, tt.lru)
			}
		})
	}
}

func TestNuevaPolitica(t *testing.T) {
	for _, nombre := range []string{"FIFO", "lru", " Fifo "} {
		if _, err := NuevaPolitica(nombre); err != nil {
			t.Errorf("NuevaPolitica(%q) got error %v", nombre, err)
		}
	}
	if _, err := NuevaPolitica("CLOCK"); err == nil {
		t.Error("NuevaPolitica(\"CLOCK\") got nil error, want error")
	}
}
