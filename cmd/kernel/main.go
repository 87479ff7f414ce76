package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sisoputnfrba/tp-simulador-vm/cpu"
	"github.com/sisoputnfrba/tp-simulador-vm/kernel"
	"github.com/sisoputnfrba/tp-simulador-vm/memoria"
	"github.com/sisoputnfrba/tp-simulador-vm/utils"
)

func main() {
	utils.InicializarLogger("INFO", "kernel")

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Uso: %s <archivo_configuracion>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Ejemplo: %s configs/kernel-config.json\n", os.Args[0])
		os.Exit(1)
	}

	if err := ejecutar(os.Args[1]); err != nil {
		utils.ErrorLog.Error("Error en la simulación", "error", err)
		os.Exit(1)
	}
}

func ejecutar(configPath string) error {
	cfg, err := kernel.CargarConfig(configPath)
	if err != nil {
		return err
	}

	if cfg.LogPath != "" {
		archivoLog, err := utils.InicializarLoggerConArchivo(cfg.LogPath, cfg.LogLevel, "kernel")
		if err != nil {
			return err
		}
		defer archivoLog.Close()
	} else {
		utils.InicializarLogger(cfg.LogLevel, "kernel")
	}

	politica, err := memoria.NuevaPolitica(cfg.AlgoritmoReemplazo)
	if err != nil {
		return err
	}
	interprete := cpu.NuevoInterprete()
	plan := kernel.NuevoPlanificador(cfg.Parametros(), interprete, politica)
	if cfg.DumpPath != "" {
		if err := configurarVolcado(cfg.DumpPath, plan); err != nil {
			return err
		}
	}

	trabajos, err := kernel.CargarProgramas(cfg.ProgramasPath, cfg.SalidaPath, interprete, plan)
	if err != nil {
		return err
	}
	defer func() {
		for _, t := range trabajos {
			if err := t.Cerrar(); err != nil {
				utils.ErrorLog.Error("Error al cerrar archivos del proceso", "pid", t.PCB.PID, "error", err)
			}
		}
	}()

	sim := nuevaSimulacion(plan, cfg.RetardoCiclo)

	var modulo *utils.Modulo
	if cfg.PuertoKernel > 0 {
		modulo = utils.NuevoModulo("Kernel", configPath)
		registrarHandlers(modulo, sim)
		modulo.IniciarServidor(cfg.IPKernel, cfg.PuertoKernel)
	}

	utils.InfoLog.Info("Iniciando simulación",
		"procesos", len(trabajos),
		"quantum", cfg.Quantum,
		"algoritmo", politica.Nombre(),
		"marcos", cfg.CantidadMarcos)

	go sim.correr()
	<-sim.terminada

	if err := plan.VerificarColas(); err != nil {
		utils.ErrorLog.Error("Estado final inconsistente", "error", err)
	}
	if err := escribirResultados(cfg, plan); err != nil {
		return err
	}

	if modulo == nil {
		return nil
	}

	utils.InfoLog.Info("Simulación terminada, el kernel sigue atendiendo consultas. Ctrl+C para salir")
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	utils.InfoLog.Info("Señal recibida. Finalizando Kernel")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return modulo.Server.Detener(ctx)
}

// configurarVolcado deja en DUMP_PATH un volcado de la memoria física cada vez
// que termina un proceso, antes de que se liberen sus marcos.
func configurarVolcado(ruta string, plan *kernel.Planificador) error {
	if err := os.Remove(ruta); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error al limpiar dump anterior: %w", err)
	}

	plan.AlFinalizar(func(pcb *kernel.PCB) {
		encabezado := fmt.Sprintf("## Finaliza el proceso (%d) %s - Reloj: %d", pcb.PID, pcb.Nombre, plan.Reloj())
		if err := plan.Memoria().VolcarArchivo(ruta, encabezado); err != nil {
			utils.ErrorLog.Error("Error al volcar memoria", "pid", pcb.PID, "error", err)
		}
	})
	return nil
}

// escribirResultados deja el reporte en stdout y en el directorio de salida
func escribirResultados(cfg *kernel.KernelConfig, plan *kernel.Planificador) error {
	reporte := plan.Reporte()
	if err := reporte.Escribir(os.Stdout); err != nil {
		return err
	}

	ruta := filepath.Join(cfg.SalidaPath, "reporte.txt")
	archivo, err := os.Create(ruta)
	if err != nil {
		return fmt.Errorf("error al crear reporte: %w", err)
	}
	defer archivo.Close()
	if err := reporte.Escribir(archivo); err != nil {
		return err
	}

	utils.InfoLog.Info("Reporte escrito", "archivo", ruta, "finalizados", reporte.Finalizados)
	return nil
}
