package cpu

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Código de operación de cada mnemónico. OpInvalida marca un mnemónico
// desconocido, que se acepta al cargar y explota al ejecutarse.
const (
	OpNoop = iota
	OpSet
	OpAdd
	OpSub
	OpAddi
	OpLoad
	OpStore
	OpLoadR
	OpStoreR
	OpPush
	OpPop
	OpJump
	OpJz
	OpJnz
	OpIn
	OpOut
	OpHalt

	OpInvalida = 0xff
)

type formato struct {
	opcode int
	// cantidad de argumentos y cuáles son registros
	registros []bool
}

var formatos = map[string]formato{
	"NOOP":   {OpNoop, nil},
	"SET":    {OpSet, []bool{true, false}},
	"ADD":    {OpAdd, []bool{true, true}},
	"SUB":    {OpSub, []bool{true, true}},
	"ADDI":   {OpAddi, []bool{true, false}},
	"LOAD":   {OpLoad, []bool{true, false}},
	"STORE":  {OpStore, []bool{true, false}},
	"LOADR":  {OpLoadR, []bool{true, true}},
	"STORER": {OpStoreR, []bool{true, true}},
	"PUSH":   {OpPush, []bool{true}},
	"POP":    {OpPop, []bool{true}},
	"JUMP":   {OpJump, []bool{false}},
	"JZ":     {OpJz, []bool{true, false}},
	"JNZ":    {OpJnz, []bool{true, false}},
	"IN":     {OpIn, []bool{true}},
	"OUT":    {OpOut, []bool{true}},
	"HALT":   {OpHalt, nil},
}

var alias = map[string]string{
	"GOTO": "JUMP",
	"EXIT": "HALT",
}

// Instruccion es una línea de pseudocódigo ya decodificada.
type Instruccion struct {
	Opcode    int
	Operacion string
	Args      []int
	Texto     string
}

// Programa es el resultado de parsear un archivo .prog: el código y la imagen
// inicial de datos.
type Programa struct {
	Instrucciones []Instruccion
	Datos         []int
	// Tamanio es el tamaño del espacio de direcciones lógico en palabras
	Tamanio int
}

// ParsearPrograma lee un programa en pseudocódigo. Una instrucción por línea,
// '#' comenta hasta el fin de línea, ".datos" abre la sección de datos y
// ".tamanio N" declara el tamaño del espacio de direcciones.
func ParsearPrograma(r io.Reader) (*Programa, error) {
	programa := &Programa{}
	enDatos := false
	declarado := 0

	scanner := bufio.NewScanner(r)
	nroLinea := 0
	for scanner.Scan() {
		nroLinea++
		linea := scanner.Text()
		if i := strings.IndexByte(linea, '#'); i >= 0 {
			linea = linea[:i]
		}
		campos := strings.Fields(linea)
		if len(campos) == 0 {
			continue
		}

		switch strings.ToLower(campos[0]) {
		case ".datos":
			enDatos = true
			continue
		case ".tamanio":
			if len(campos) != 2 {
				return nil, fmt.Errorf("línea %d: .tamanio espera un argumento", nroLinea)
			}
			n, err := strconv.Atoi(campos[1])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("línea %d: tamaño inválido %q", nroLinea, campos[1])
			}
			declarado = n
			continue
		}

		if enDatos {
			for _, campo := range campos {
				valor, err := strconv.Atoi(campo)
				if err != nil {
					return nil, fmt.Errorf("línea %d: dato inválido %q: %w", nroLinea, campo, err)
				}
				programa.Datos = append(programa.Datos, valor&MascaraPalabra)
			}
			continue
		}

		instruccion, err := parsearInstruccion(campos)
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", nroLinea, err)
		}
		instruccion.Texto = strings.Join(campos, " ")
		programa.Instrucciones = append(programa.Instrucciones, instruccion)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error leyendo programa: %w", err)
	}

	programa.Tamanio = max(declarado, len(programa.Datos))
	return programa, nil
}

func parsearInstruccion(campos []string) (Instruccion, error) {
	operacion := strings.ToUpper(campos[0])
	if canonica, ok := alias[operacion]; ok {
		operacion = canonica
	}

	f, conocida := formatos[operacion]
	if !conocida {
		return Instruccion{Opcode: OpInvalida, Operacion: operacion}, nil
	}

	argumentos := campos[1:]
	if len(argumentos) != len(f.registros) {
		return Instruccion{}, fmt.Errorf("%s espera %d argumentos, recibió %d", operacion, len(f.registros), len(argumentos))
	}

	args := make([]int, len(argumentos))
	for i, texto := range argumentos {
		valor, err := strconv.Atoi(texto)
		if err != nil {
			return Instruccion{}, fmt.Errorf("%s: argumento inválido %q", operacion, texto)
		}
		if f.registros[i] && (valor < 0 || valor >= CantRegistros) {
			return Instruccion{}, fmt.Errorf("%s: registro inexistente %d", operacion, valor)
		}
		args[i] = valor
	}

	return Instruccion{Opcode: f.opcode, Operacion: operacion, Args: args}, nil
}
