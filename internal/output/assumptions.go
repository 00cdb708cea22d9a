package output

// DefaultAssumptions lists the legal and arithmetic premises printed above
// detailed liquidation reports.
var DefaultAssumptions = []string{
	"Mesada proyectada: valor[año] = valor[año-1] x (1 + variación/100)",
	"Diferencia anual: max(0, mesada proyectada por SMLMV - mesada pagable)",
	"Retroactivo: diferencia x número de mesadas del periodo (incluye adicionales de junio y diciembre)",
	"Índices: SMLMV decretado y variación IPC del año anterior certificada por el DANE",
}
