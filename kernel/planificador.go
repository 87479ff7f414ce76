package kernel

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/sisoputnfrba/tp-simulador-vm/cpu"
	"github.com/sisoputnfrba/tp-simulador-vm/memoria"
	"github.com/sisoputnfrba/tp-simulador-vm/utils"
)

// Parametros de planificación, fijos durante una corrida
type Parametros struct {
	Quantum        int
	CambioContexto int
	LatenciaIO     int
	TamPila        int
	TamPagina      int
	CantidadMarcos int
}

// Planificador multiplexa un único motor entre los procesos con round robin.
// Es dueño de los PCB, de las colas y del reloj global; las colas guardan PIDs.
// No es seguro para uso concurrente.
type Planificador struct {
	params  Parametros
	motor   cpu.Motor
	memoria *memoria.Gestor

	procesos   []*PCB
	colaReady  []int
	colaEspera []int
	ejecutando int

	reloj         int
	tiempoOcioso  int
	tiempoSistema int
	ciclos        int

	alFinalizar func(*PCB)
}

func NuevoPlanificador(params Parametros, motor cpu.Motor, politica memoria.Politica) *Planificador {
	p := &Planificador{
		params:     params,
		motor:      motor,
		ejecutando: -1,
	}
	p.memoria = memoria.NuevoGestor(params.CantidadMarcos, params.TamPagina, politica, p.Reloj)

	utils.InfoLog.Info("Planificador inicializado",
		"quantum", params.Quantum,
		"cambio_contexto", params.CambioContexto,
		"latencia_io", params.LatenciaIO)
	return p
}

func (p *Planificador) Reloj() int { return p.reloj }

func (p *Planificador) TiempoOcioso() int { return p.tiempoOcioso }

func (p *Planificador) TiempoSistema() int { return p.tiempoSistema }

func (p *Planificador) Ciclos() int { return p.ciclos }

func (p *Planificador) Memoria() *memoria.Gestor { return p.memoria }

// Ejecutando devuelve el PID que corre en el próximo ciclo, o -1
func (p *Planificador) Ejecutando() int { return p.ejecutando }

// Proceso devuelve el PCB del PID, o nil
func (p *Planificador) Proceso(pid int) *PCB {
	if pid < 0 || pid >= len(p.procesos) {
		return nil
	}
	return p.procesos[pid]
}

// Procesos devuelve los PCB en orden de PID
func (p *Planificador) Procesos() []*PCB {
	return slices.Clone(p.procesos)
}

// AlFinalizar registra una función que se llama cuando un proceso termina,
// antes de liberar sus marcos.
func (p *Planificador) AlFinalizar(f func(*PCB)) {
	p.alFinalizar = f
}

// Admitir registra el proceso, le asigna PID y espacio de direcciones y lo
// pasa a READY.
func (p *Planificador) Admitir(pcb *PCB, imagen memoria.Imagen) error {
	pid := len(p.procesos)
	pcb.PID = pid
	if err := p.memoria.Registrar(pid, imagen); err != nil {
		return err
	}
	if pcb.Pila == nil {
		pcb.Pila = &PilaEnMemoria{}
	}

	pcb.SP = p.params.TamPila
	pcb.PaginaPendiente = -1
	pcb.Llegada = p.reloj
	p.procesos = append(p.procesos, pcb)
	utils.InfoLog.Info(fmt.Sprintf("## (%d) Se crea el proceso - Estado: %s - Programa: %s", pid, pcb.Estado, pcb.Nombre))

	p.transicionar(pcb, EstadoReady)
	pcb.InicioEspera = p.reloj
	p.colaReady = append(p.colaReady, pid)
	return nil
}

// EjecutarCiclo corre un ciclo completo: cambio de contexto, una ráfaga del
// proceso seleccionado, clasificación del trap y selección del siguiente.
// Devuelve false si no queda ningún proceso por ejecutar.
func (p *Planificador) EjecutarCiclo() bool {
	if p.ejecutando < 0 && !p.seleccionarSiguiente() {
		return false
	}
	p.ciclos++

	pcb := p.procesos[p.ejecutando]
	p.reloj += p.params.CambioContexto
	p.tiempoSistema += p.params.CambioContexto

	if pcb.errorCarga != nil {
		p.completarES()
		p.finalizar(pcb, fmt.Sprintf("Error: %v, pc = %d", pcb.errorCarga, pcb.PC))
	} else {
		p.despachar(pcb)
	}

	p.ejecutando = -1
	p.seleccionarSiguiente()
	return true
}

// despachar corre una ráfaga del proceso y aplica la transición que resulte
func (p *Planificador) despachar(pcb *PCB) {
	ctx, err := p.restaurarContexto(pcb)
	if err != nil {
		utils.ErrorLog.Error("Error al restaurar contexto", "pid", pcb.PID, "error", err)
		p.completarES()
		p.finalizar(pcb, fmt.Sprintf("Error: no se pudo restaurar el contexto: %v", err))
		return
	}

	inicio := p.reloj
	p.motor.Ejecutar(ctx, p.params.Quantum, &busProceso{p: p, pid: pcb.PID})
	pcb.TiempoCPU += p.reloj - inicio
	volcarContexto(pcb, ctx)

	// La clasificación no toca la pila, así que se persiste antes
	errPila := guardarPila(pcb, ctx)

	p.completarES()
	if errPila != nil {
		utils.ErrorLog.Error("Error al guardar la pila", "pid", pcb.PID, "error", errPila)
		p.finalizar(pcb, fmt.Sprintf("Error: no se pudo guardar la pila: %v", errPila))
		return
	}
	p.clasificar(pcb, ctx)
}

// Correr ejecuta ciclos hasta que terminan todos los procesos. alTerminarCiclo
// puede ser nil.
func (p *Planificador) Correr(alTerminarCiclo func()) {
	for p.EjecutarCiclo() {
		if alTerminarCiclo != nil {
			alTerminarCiclo()
		}
	}
	utils.InfoLog.Info("Todos los procesos finalizaron", "reloj", p.reloj, "ciclos", p.ciclos)
}

// completarES pasa a READY, en orden de cola, todos los procesos cuya E/S
// ya terminó.
func (p *Planificador) completarES() {
	pendientes := p.colaEspera[:0]
	for _, pid := range p.colaEspera {
		pcb := p.procesos[pid]
		if pcb.FinIO > p.reloj {
			pendientes = append(pendientes, pid)
			continue
		}
		pcb.TiempoIO += p.reloj - pcb.InicioIO
		p.cargarPaginaPendiente(pcb)
		p.transicionar(pcb, EstadoReady)
		pcb.InicioEspera = p.reloj
		p.colaReady = append(p.colaReady, pid)
		utils.InfoLog.Info(fmt.Sprintf("## (%d) finalizó %s", pid, pcb.MotivoBloqueo))
	}
	p.colaEspera = pendientes
}

// clasificar aplica la única transición que corresponde al trap de la ráfaga
func (p *Planificador) clasificar(pcb *PCB, ctx *cpu.Contexto) {
	estado := cpu.DecodificarEstado(ctx.SR)

	switch estado.Trap {
	case cpu.TrapFinQuantum:
		utils.InfoLog.Info(fmt.Sprintf("## (%d) - Desalojado por fin de quantum", pcb.PID))
		p.transicionar(pcb, EstadoReady)
		pcb.InicioEspera = p.reloj
		p.colaReady = append(p.colaReady, pcb.PID)

	case cpu.TrapHalt:
		p.finalizar(pcb, fmt.Sprintf("%s: Finalizado", pcb.Nombre))

	case cpu.TrapFueraDeRango:
		p.finalizar(pcb, fmt.Sprintf("Error: acceso fuera de rango, pc = %d", pcb.PC))

	case cpu.TrapDesbordePila:
		p.finalizar(pcb, fmt.Sprintf("Error: desborde de pila, pc = %d, sp = %d", pcb.PC, pcb.SP))

	case cpu.TrapSubdesbordePila:
		p.finalizar(pcb, fmt.Sprintf("Error: subdesborde de pila, pc = %d, sp = %d", pcb.PC, pcb.SP))

	case cpu.TrapOpcodeInvalido:
		p.finalizar(pcb, fmt.Sprintf("Error: opcode inválido, pc = %d", pcb.PC))

	case cpu.TrapLectura:
		valor, err := pcb.leerEntrada()
		if err != nil {
			p.finalizar(pcb, fmt.Sprintf("Error: no hay entrada para leer, pc = %d: %v", pcb.PC, err))
			return
		}
		if valor < -0x8000 || valor > cpu.MascaraPalabra {
			p.finalizar(pcb, fmt.Sprintf("Error: entrada %d fuera de 16 bits, pc = %d", valor, pcb.PC))
			return
		}
		pcb.Registros[estado.Registro] = valor & cpu.MascaraPalabra
		p.bloquear(pcb, "LECTURA")

	case cpu.TrapEscritura:
		valor := cpu.ExtenderSigno(pcb.Registros[estado.Registro])
		if err := pcb.escribirSalida(fmt.Sprint(valor)); err != nil {
			p.finalizar(pcb, fmt.Sprintf("Error: no se pudo escribir la salida, pc = %d: %v", pcb.PC, err))
			return
		}
		p.bloquear(pcb, "ESCRITURA")

	case cpu.TrapFalloPagina:
		// la página se carga cuando el proceso sale de la espera
		pcb.PaginaPendiente = p.memoria.PaginaDe(ctx.DirFallo)
		p.bloquear(pcb, "FALLO_PAGINA")

	case cpu.TrapInesperado:
		utils.ErrorLog.Error("Estado inesperado del motor", "pid", pcb.PID, "codigo", estado.Codigo, "sr", ctx.SR, "pc", pcb.PC)
		p.finalizar(pcb, fmt.Sprintf("Error: estado inesperado %d, pc = %d", estado.Codigo, pcb.PC))

	default:
		panic(fmt.Sprintf("trap sin clasificar: %v", estado.Trap))
	}
}

// bloquear pasa el proceso a WAITING con la latencia fija de E/S
func (p *Planificador) bloquear(pcb *PCB, motivo string) {
	p.transicionar(pcb, EstadoBlocked)
	pcb.MotivoBloqueo = motivo
	pcb.InicioIO = p.reloj
	pcb.FinIO = p.reloj + p.params.LatenciaIO
	p.colaEspera = append(p.colaEspera, pcb.PID)
	utils.InfoLog.Info(fmt.Sprintf("## (%d) - Bloqueado por %s hasta %d", pcb.PID, motivo, pcb.FinIO))
}

// cargarPaginaPendiente resuelve el fallo de página de un proceso que deja
// WAITING, justo antes de que vuelva a ser elegible. Si la página no se puede
// cargar, el proceso termina en su próximo despacho.
func (p *Planificador) cargarPaginaPendiente(pcb *PCB) {
	pagina := pcb.PaginaPendiente
	if pagina < 0 {
		return
	}
	pcb.PaginaPendiente = -1

	if err := p.memoria.ResolverFallo(pcb.PID, pagina); err != nil {
		utils.ErrorLog.Error("No se pudo resolver el fallo de página", "pid", pcb.PID, "pagina", pagina, "error", err)
		pcb.errorCarga = fmt.Errorf("no se pudo cargar la página %d: %w", pagina, err)
	}
}

// finalizar termina el proceso que acaba de ejecutar
func (p *Planificador) finalizar(pcb *PCB, diagnostico string) {
	p.transicionar(pcb, EstadoExit)
	p.cerrarProceso(pcb, diagnostico)
}

func (p *Planificador) cerrarProceso(pcb *PCB, diagnostico string) {
	pcb.Turnaround = p.reloj - pcb.Llegada
	pcb.MotivoFin = diagnostico

	if err := pcb.escribirSalida(diagnostico); err != nil {
		utils.ErrorLog.Error("No se pudo escribir el diagnóstico", "pid", pcb.PID, "error", err)
	}
	if p.alFinalizar != nil {
		p.alFinalizar(pcb)
	}
	if err := p.memoria.LiberarProceso(pcb.PID); err != nil && !errors.Is(err, memoria.ErrProcesoInexistente) {
		utils.ErrorLog.Error("Error liberando memoria", "pid", pcb.PID, "error", err)
	}

	utils.InfoLog.Info(fmt.Sprintf("## (%d) - Finaliza el proceso - %s", pcb.PID, diagnostico))
	p.memoria.LogMetricas(pcb.PID)
}

// seleccionarSiguiente toma la cabeza de READY; si está vacía, avanza el reloj
// hasta la finalización de la cabeza de la cola de espera y la despacha.
// Antes de elegir pasa a READY toda espera ya vencida, incluso la del proceso
// que se bloqueó en este ciclo.
func (p *Planificador) seleccionarSiguiente() bool {
	p.completarES()

	if len(p.colaReady) > 0 {
		pid := p.colaReady[0]
		p.colaReady = slices.Delete(p.colaReady, 0, 1)

		pcb := p.procesos[pid]
		pcb.TiempoEspera += p.reloj - pcb.InicioEspera
		p.transicionar(pcb, EstadoExec)
		p.ejecutando = pid
		return true
	}

	if len(p.colaEspera) > 0 {
		pid := p.colaEspera[0]
		p.colaEspera = slices.Delete(p.colaEspera, 0, 1)

		pcb := p.procesos[pid]
		if pcb.FinIO > p.reloj {
			p.tiempoOcioso += pcb.FinIO - p.reloj
			utils.InfoLog.Debug("CPU ociosa", "desde", p.reloj, "hasta", pcb.FinIO)
			p.reloj = pcb.FinIO
		}
		pcb.TiempoIO += p.reloj - pcb.InicioIO
		p.cargarPaginaPendiente(pcb)
		p.transicionar(pcb, EstadoExec)
		p.ejecutando = pid
		return true
	}

	return false
}

func (p *Planificador) transicionar(pcb *PCB, estado string) {
	if err := pcb.CambiarEstado(estado); err != nil {
		utils.ErrorLog.Error("Transición rechazada", "error", err)
	}
}

// VerificarColas comprueba que cada proceso esté en a lo sumo uno de
// {ejecutando, READY, espera} y que su estado coincida con ese lugar.
func (p *Planificador) VerificarColas() error {
	lugares := make(map[int]string)
	anotar := func(pid int, lugar string) error {
		if previo, ok := lugares[pid]; ok {
			return fmt.Errorf("PID %d está en %s y en %s", pid, previo, lugar)
		}
		lugares[pid] = lugar
		return nil
	}

	if p.ejecutando >= 0 {
		if err := anotar(p.ejecutando, EstadoExec); err != nil {
			return err
		}
	}
	for _, pid := range p.colaReady {
		if err := anotar(pid, EstadoReady); err != nil {
			return err
		}
	}
	for _, pid := range p.colaEspera {
		if err := anotar(pid, EstadoBlocked); err != nil {
			return err
		}
	}

	for pid, lugar := range lugares {
		if estado := p.procesos[pid].Estado; estado != lugar {
			return fmt.Errorf("PID %d en %s con estado %s", pid, lugar, estado)
		}
	}
	for _, pcb := range p.procesos {
		if _, ok := lugares[pcb.PID]; !ok && pcb.Estado != EstadoExit {
			return fmt.Errorf("PID %d en estado %s fuera de toda cola", pcb.PID, pcb.Estado)
		}
	}
	return nil
}

// busProceso conecta el motor con la memoria del proceso en ejecución y con
// el reloj global.
type busProceso struct {
	p   *Planificador
	pid int
}

func (b *busProceso) Leer(dir int) (int, error) {
	valor, err := b.p.memoria.LeerPalabra(b.pid, dir)
	return valor, errorDeMemoria(err)
}

func (b *busProceso) Escribir(dir int, valor int) error {
	return errorDeMemoria(b.p.memoria.EscribirPalabra(b.pid, dir, valor))
}

func (b *busProceso) Tick() { b.p.reloj++ }

func errorDeMemoria(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, memoria.ErrFalloPagina):
		return fmt.Errorf("%w: %v", cpu.ErrFalloPagina, err)
	case errors.Is(err, memoria.ErrFueraDeRango):
		return fmt.Errorf("%w: %v", cpu.ErrFueraDeRango, err)
	default:
		return err
	}
}
