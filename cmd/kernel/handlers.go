package main

import (
	"strconv"
	"strings"

	"github.com/sisoputnfrba/tp-simulador-vm/utils"
)

const (
	OperacionPausar   = "PAUSAR"
	OperacionReanudar = "REANUDAR"
)

// RespuestaDump lleva el volcado de memoria en texto
type RespuestaDump struct {
	Volcado string `json:"volcado"`
}

// RespuestaControl es lo que devuelven PAUSAR y REANUDAR
type RespuestaControl struct {
	Pausada bool `json:"pausada"`
	Cambio  bool `json:"cambio"`
}

func registrarHandlers(modulo *utils.Modulo, sim *simulacion) {
	modulo.RegistrarHandler(strconv.Itoa(utils.MensajeHandshake), "default", func(msg *utils.Mensaje) (interface{}, error) {
		utils.InfoLog.Info("Handshake recibido", "origen", msg.Origen)
		return map[string]string{"modulo": modulo.Nombre, "estado": "OK"}, nil
	})

	modulo.RegistrarHandler(strconv.Itoa(utils.MensajeEstado), "default", func(msg *utils.Mensaje) (interface{}, error) {
		return sim.Instantanea(), nil
	})

	modulo.RegistrarHandler(strconv.Itoa(utils.MensajeReporte), "default", func(msg *utils.Mensaje) (interface{}, error) {
		return sim.Reporte(), nil
	})

	modulo.RegistrarHandler(strconv.Itoa(utils.MensajeDump), "default", func(msg *utils.Mensaje) (interface{}, error) {
		utils.InfoLog.Info("Pedido de volcado de memoria", "origen", msg.Origen)
		var sb strings.Builder
		if err := sim.volcar(&sb); err != nil {
			return nil, err
		}
		return RespuestaDump{Volcado: sb.String()}, nil
	})

	modulo.RegistrarHandler(strconv.Itoa(utils.MensajeControl), OperacionPausar, func(msg *utils.Mensaje) (interface{}, error) {
		utils.InfoLog.Info("Pedido de pausa", "origen", msg.Origen)
		cambio := sim.pausar()
		return RespuestaControl{Pausada: sim.Pausada(), Cambio: cambio}, nil
	})

	modulo.RegistrarHandler(strconv.Itoa(utils.MensajeControl), OperacionReanudar, func(msg *utils.Mensaje) (interface{}, error) {
		utils.InfoLog.Info("Pedido de reanudación", "origen", msg.Origen)
		cambio := sim.reanudar()
		return RespuestaControl{Pausada: sim.Pausada(), Cambio: cambio}, nil
	})
}
