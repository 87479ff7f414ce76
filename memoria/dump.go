package memoria

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Volcar escribe la tabla de marcos y el contenido de cada marco ocupado
func (g *Gestor) Volcar(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# Marcos: %d - Tamaño de página: %d - Algoritmo: %s - Libres: %d\n",
		len(g.marcos), g.tamPagina, g.politica.Nombre(), g.MarcosLibres())

	for i, m := range g.marcos {
		if !m.Ocupado {
			fmt.Fprintf(bw, "Marco %3d | libre\n", i)
			continue
		}
		modificado := 0
		if m.Modificado {
			modificado = 1
		}
		fmt.Fprintf(bw, "Marco %3d | PID %3d | Página %3d | Carga %6d | Ref %6d | M %d |",
			i, m.PID, m.Pagina, m.Carga, m.UltimaReferencia, modificado)
		for _, palabra := range g.contenidoMarco(i) {
			fmt.Fprintf(bw, " %05d", palabra)
		}
		fmt.Fprintln(bw)
	}

	return bw.Flush()
}

// VolcarArchivo agrega un volcado al final del archivo en ruta, precedido por
// la línea encabezado si no está vacía.
func (g *Gestor) VolcarArchivo(ruta, encabezado string) error {
	if err := os.MkdirAll(filepath.Dir(ruta), 0755); err != nil {
		return fmt.Errorf("error al crear directorio para dumps: %w", err)
	}

	archivo, err := os.OpenFile(ruta, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error al abrir archivo de dump: %w", err)
	}
	defer archivo.Close()

	if encabezado != "" {
		if _, err := fmt.Fprintln(archivo, encabezado); err != nil {
			return fmt.Errorf("error al escribir en archivo de dump: %w", err)
		}
	}
	if err := g.Volcar(archivo); err != nil {
		return fmt.Errorf("error al escribir en archivo de dump: %w", err)
	}
	return nil
}
