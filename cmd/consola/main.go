package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sisoputnfrba/tp-simulador-vm/kernel"
	"github.com/sisoputnfrba/tp-simulador-vm/utils"
)

func main() {
	utils.InicializarLogger("WARN", "consola")

	if len(os.Args) < 4 {
		fmt.Fprintf(os.Stderr, "Uso: %s <ip_kernel> <puerto_kernel> <estado|reporte|dump|pausar|reanudar>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Ejemplo: %s 127.0.0.1 8001 estado\n", os.Args[0])
		os.Exit(1)
	}

	puerto, err := strconv.Atoi(os.Args[2])
	if err != nil {
		utils.ErrorLog.Error("El puerto debe ser un número entero", "valor", os.Args[2], "error", err)
		os.Exit(1)
	}

	cliente := utils.NewHTTPClient(os.Args[1], puerto, "Consola")
	if err := cliente.VerificarConexion(); err != nil {
		utils.ErrorLog.Error("Kernel no disponible", "error", err)
		os.Exit(1)
	}

	respuesta, err := consultar(cliente, strings.ToLower(os.Args[3]))
	if err != nil {
		utils.ErrorLog.Error("Error en la consulta", "comando", os.Args[3], "error", err)
		os.Exit(1)
	}

	switch r := respuesta.(type) {
	case *kernel.Reporte:
		r.Escribir(os.Stdout)
		return
	case map[string]string:
		fmt.Print(r["volcado"])
		return
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	encoder.Encode(respuesta)
}

func consultar(cliente *utils.HTTPClient, comando string) (interface{}, error) {
	switch comando {
	case "estado":
		var inst kernel.Instantanea
		err := cliente.EnviarHTTPMensaje(utils.MensajeEstado, "", nil, &inst)
		return &inst, err
	case "reporte":
		var reporte kernel.Reporte
		err := cliente.EnviarHTTPMensaje(utils.MensajeReporte, "", nil, &reporte)
		return &reporte, err
	case "dump":
		var resp map[string]string
		err := cliente.EnviarHTTPMensaje(utils.MensajeDump, "", nil, &resp)
		return resp, err
	case "pausar", "reanudar":
		var resp map[string]bool
		err := cliente.EnviarHTTPMensaje(utils.MensajeControl, strings.ToUpper(comando), nil, &resp)
		return resp, err
	default:
		return nil, fmt.Errorf("comando desconocido: %s", comando)
	}
}
