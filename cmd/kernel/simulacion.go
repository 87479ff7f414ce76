package main

import (
	"io"
	"sync"

	"github.com/sisoputnfrba/tp-simulador-vm/kernel"
	"github.com/sisoputnfrba/tp-simulador-vm/utils"
)

// simulacion corre el planificador en su propia goroutine y publica una copia
// del estado después de cada ciclo para los handlers HTTP.
type simulacion struct {
	plan    *kernel.Planificador
	retardo int

	mu          sync.RWMutex
	instantanea kernel.Instantanea
	reporte     kernel.Reporte

	// ciclo lo toma el planificador durante cada ciclo y PAUSAR para frenarlo
	ciclo   *utils.Semaforo
	muPausa sync.Mutex
	pausado bool

	terminada chan struct{}
}

func nuevaSimulacion(plan *kernel.Planificador, retardoCiclo int) *simulacion {
	s := &simulacion{
		plan:      plan,
		retardo:   retardoCiclo,
		ciclo:     utils.NewSemaforo(1),
		terminada: make(chan struct{}),
	}
	s.publicar()
	return s
}

func (s *simulacion) correr() {
	defer close(s.terminada)

	s.ciclo.Wait()
	s.plan.Correr(func() {
		s.publicar()
		s.ciclo.Signal()
		utils.AplicarRetardo("ciclo", s.retardo)
		s.ciclo.Wait()
	})
	s.publicar()
	s.ciclo.Signal()
}

func (s *simulacion) publicar() {
	instantanea := s.plan.Instantanea()
	reporte := s.plan.Reporte()

	s.mu.Lock()
	s.instantanea = instantanea
	s.reporte = reporte
	s.mu.Unlock()
}

func (s *simulacion) Instantanea() kernel.Instantanea {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.instantanea
}

func (s *simulacion) Reporte() kernel.Reporte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reporte
}

// pausar espera a que termine el ciclo en curso y frena los siguientes.
// Devuelve false si ya estaba pausada.
func (s *simulacion) pausar() bool {
	s.muPausa.Lock()
	defer s.muPausa.Unlock()

	if s.pausado {
		return false
	}
	s.ciclo.Wait()
	s.pausado = true
	utils.InfoLog.Info("Simulación pausada", "reloj", s.Instantanea().Reloj)
	return true
}

func (s *simulacion) reanudar() bool {
	s.muPausa.Lock()
	defer s.muPausa.Unlock()

	if !s.pausado {
		return false
	}
	s.pausado = false
	s.ciclo.Signal()
	utils.InfoLog.Info("Simulación reanudada")
	return true
}

// volcar escribe la memoria física entre dos ciclos. Si la simulación está
// pausada el planificador ya está quieto.
func (s *simulacion) volcar(w io.Writer) error {
	s.muPausa.Lock()
	defer s.muPausa.Unlock()

	if !s.pausado {
		s.ciclo.Wait()
		defer s.ciclo.Signal()
	}
	return s.plan.Memoria().Volcar(w)
}

func (s *simulacion) Pausada() bool {
	s.muPausa.Lock()
	defer s.muPausa.Unlock()
	return s.pausado
}
