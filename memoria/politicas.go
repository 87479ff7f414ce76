package memoria

import (
	"fmt"
	"strings"
)

// Politica elige el marco víctima cuando no quedan marcos libres.
type Politica interface {
	Nombre() string
	// ElegirVictima devuelve el índice del marco a reemplazar entre los
	// ocupados, o -1 si no hay ninguno.
	ElegirVictima(marcos []Marco) int
}

// PoliticaFIFO reemplaza el marco cargado hace más tiempo, sin importar los
// accesos posteriores.
type PoliticaFIFO struct{}

func (PoliticaFIFO) Nombre() string { return "FIFO" }

func (PoliticaFIFO) ElegirVictima(marcos []Marco) int {
	return menorOcupado(marcos, func(m *Marco) int { return m.Carga })
}

// PoliticaLRU reemplaza el marco referenciado hace más tiempo.
type PoliticaLRU struct{}

func (PoliticaLRU) Nombre() string { return "LRU" }

func (PoliticaLRU) ElegirVictima(marcos []Marco) int {
	return menorOcupado(marcos, func(m *Marco) int { return m.UltimaReferencia })
}

// menorOcupado recorre en orden de índice; la comparación estricta deja el
// empate en el marco de menor índice.
func menorOcupado(marcos []Marco, clave func(*Marco) int) int {
	victima := -1
	menor := 0
	for i := range marcos {
		if !marcos[i].Ocupado {
			continue
		}
		if victima == -1 || clave(&marcos[i]) < menor {
			victima = i
			menor = clave(&marcos[i])
		}
	}
	return victima
}

// NuevaPolitica devuelve la política configurada en ALGORITMO_REEMPLAZO.
func NuevaPolitica(nombre string) (Politica, error) {
	switch strings.ToUpper(strings.TrimSpace(nombre)) {
	case "FIFO":
		return PoliticaFIFO{}, nil
	case "LRU":
		return PoliticaLRU{}, nil
	default:
		return nil, fmt.Errorf("algoritmo de reemplazo desconocido: %q", nombre)
	}
}
