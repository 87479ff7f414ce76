package memoria

import "errors"

var (
	ErrFalloPagina        = errors.New("fallo de página")
	ErrFueraDeRango       = errors.New("dirección fuera del espacio del proceso")
	ErrSinVictima         = errors.New("no hay marco ocupado para reemplazar")
	ErrProcesoInexistente = errors.New("proceso sin espacio de direcciones")
	ErrProcesoExistente   = errors.New("proceso ya registrado")
)

// Marco es una entrada de la tabla de marcos (tabla de páginas invertida).
type Marco struct {
	Indice  int  `json:"indice"`
	Ocupado bool `json:"ocupado"`

	// Dueño, válidos sólo si Ocupado
	PID    int `json:"pid"`
	Pagina int `json:"pagina"`

	Carga            int  `json:"carga"`
	UltimaReferencia int  `json:"ultima_referencia"`
	Modificado       bool `json:"modificado"`
}

// EntradaTabla representa una entrada en la tabla de páginas de un proceso
type EntradaTabla struct {
	Pagina int  `json:"pagina"`
	Valido bool `json:"valido"`
	Marco  int  `json:"marco"`
}

// Metricas almacena estadísticas sobre el uso de memoria de un proceso
type Metricas struct {
	FallosPagina int `json:"fallos_pagina"`
	Reemplazos   int `json:"reemplazos"` // páginas propias desalojadas
	Subidas      int `json:"subidas"`    // páginas cargadas desde la imagen
	Bajadas      int `json:"bajadas"`    // páginas modificadas escritas en la imagen
	Lecturas     int `json:"lecturas"`
	Escrituras   int `json:"escrituras"`
}

// espacio es el espacio de direcciones lógico de un proceso
type espacio struct {
	tabla   []EntradaTabla
	imagen  Imagen
	tamanio int
}
