package memoria

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/exp/slices"
)

// Imagen es el almacenamiento de respaldo de un proceso. Las páginas se leen y
// escriben por bloques de len(buffer) palabras; lo que cae más allá del final
// de la imagen se lee como cero y no se escribe.
type Imagen interface {
	LeerPagina(pagina int, destino []int) error
	EscribirPagina(pagina int, origen []int) error
	Tamanio() int
}

// Cada palabra ocupa 5 dígitos más el salto de línea
const (
	digitosPalabra = 5
	anchoPalabra   = digitosPalabra + 1
	maxPalabra     = 99999
)

// ArchivoImagen guarda la imagen en disco, una palabra por línea con ancho
// fijo, de modo que cada página se ubica por offset.
type ArchivoImagen struct {
	ruta     string
	archivo  *os.File
	palabras int
}

// CrearArchivoImagen escribe los datos iniciales completando con ceros hasta
// tamanio palabras y deja el archivo abierto para lectura y escritura.
func CrearArchivoImagen(ruta string, datos []int, tamanio int) (*ArchivoImagen, error) {
	archivo, err := os.Create(ruta)
	if err != nil {
		return nil, fmt.Errorf("error al crear imagen %s: %w", ruta, err)
	}

	palabras := max(tamanio, len(datos))
	w := bufio.NewWriter(archivo)
	for i := 0; i < palabras; i++ {
		valor := 0
		if i < len(datos) {
			valor = datos[i]
		}
		if valor < 0 || valor > maxPalabra {
			archivo.Close()
			return nil, fmt.Errorf("palabra %d fuera de formato en imagen %s: %d", i, ruta, valor)
		}
		fmt.Fprintf(w, "%05d\n", valor)
	}
	if err := w.Flush(); err != nil {
		archivo.Close()
		return nil, fmt.Errorf("error al escribir imagen %s: %w", ruta, err)
	}

	return &ArchivoImagen{ruta: ruta, archivo: archivo, palabras: palabras}, nil
}

func (a *ArchivoImagen) Tamanio() int { return a.palabras }

// LeerPagina lee una página de la imagen
func (a *ArchivoImagen) LeerPagina(pagina int, destino []int) error {
	inicio := pagina * len(destino)
	disponibles := min(len(destino), a.palabras-inicio)
	clear(destino)
	if disponibles <= 0 {
		return nil
	}

	buffer := make([]byte, disponibles*anchoPalabra)
	if _, err := a.archivo.ReadAt(buffer, int64(inicio*anchoPalabra)); err != nil {
		return fmt.Errorf("error leyendo página %d de %s: %w", pagina, a.ruta, err)
	}

	for i := 0; i < disponibles; i++ {
		campo := buffer[i*anchoPalabra : i*anchoPalabra+digitosPalabra]
		valor, err := strconv.Atoi(string(campo))
		if err != nil {
			return fmt.Errorf("palabra corrupta en %s, posición %d: %w", a.ruta, inicio+i, err)
		}
		destino[i] = valor
	}
	return nil
}

// EscribirPagina escribe una página en la imagen
func (a *ArchivoImagen) EscribirPagina(pagina int, origen []int) error {
	inicio := pagina * len(origen)
	disponibles := min(len(origen), a.palabras-inicio)
	if disponibles <= 0 {
		return nil
	}

	buffer := make([]byte, 0, disponibles*anchoPalabra)
	for i := 0; i < disponibles; i++ {
		if origen[i] < 0 || origen[i] > maxPalabra {
			return fmt.Errorf("palabra fuera de formato en página %d: %d", pagina, origen[i])
		}
		buffer = fmt.Appendf(buffer, "%05d\n", origen[i])
	}

	if _, err := a.archivo.WriteAt(buffer, int64(inicio*anchoPalabra)); err != nil {
		return fmt.Errorf("error escribiendo página %d en %s: %w", pagina, a.ruta, err)
	}
	return nil
}

func (a *ArchivoImagen) Close() error {
	return a.archivo.Close()
}

// ImagenEnMemoria es una imagen sin archivo, útil para pruebas y programas
// generados al vuelo.
type ImagenEnMemoria struct {
	palabras []int
}

func NuevaImagenEnMemoria(datos []int, tamanio int) *ImagenEnMemoria {
	palabras := make([]int, max(tamanio, len(datos)))
	copy(palabras, datos)
	return &ImagenEnMemoria{palabras: palabras}
}

func (m *ImagenEnMemoria) Tamanio() int { return len(m.palabras) }

func (m *ImagenEnMemoria) LeerPagina(pagina int, destino []int) error {
	clear(destino)
	inicio := pagina * len(destino)
	if inicio < len(m.palabras) {
		copy(destino, m.palabras[inicio:])
	}
	return nil
}

func (m *ImagenEnMemoria) EscribirPagina(pagina int, origen []int) error {
	inicio := pagina * len(origen)
	if inicio < len(m.palabras) {
		copy(m.palabras[inicio:], origen)
	}
	return nil
}

// Palabras devuelve una copia del contenido actual
func (m *ImagenEnMemoria) Palabras() []int {
	return slices.Clone(m.palabras)
}
