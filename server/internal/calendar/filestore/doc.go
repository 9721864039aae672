// Package filestore serves calendar reference data from a YAML file.
//
// File format:
//
//	feriados:
//	  - {data: 2026-04-21, descricao: Tiradentes}
//	  - {data: 2026-07-09, uf: SP}
//	feriados_tribunal:
//	  - {tribunal: TJSP, data: 2026-04-06, prazos_prorrogados: true}
//	suspensoes_tribunal:
//	  - {tribunal: TJSP, data_inicio: 2026-04-13, data_fim: 2026-04-15, suspende_prazos: true}
//
// Watch reloads the file on change; a file that fails to parse or validate is
// logged and the previous dataset stays active.
package filestore
