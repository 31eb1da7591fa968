// Package floorplan masaları kafe yerleşim planına yerleştirir.
package floorplan

import "math"

// Yerleşim planında bir masanın çizim boyutu.
const (
	TableWidth  = 128
	TableHeight = 96
)

const gridColumns = 5

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size yerleşim alanı.
type Size struct {
	Width  int
	Height int
}

// Clamp masayı tamamen alanın içinde tutar, tam piksele yuvarlar.
func (s Size) Clamp(x, y float64) Point {
	maxX := math.Max(0, float64(s.Width-TableWidth))
	maxY := math.Max(0, float64(s.Height-TableHeight))
	return Point{
		X: int(math.Round(math.Min(math.Max(x, 0), maxX))),
		Y: int(math.Round(math.Min(math.Max(y, 0), maxY))),
	}
}

// DefaultPosition numara sırasına göre i. masanın kimse sürüklemeden önceki
// yeri. Tek satırlar sağa kaydırılır.
func DefaultPosition(i int) Point {
	col := i % gridColumns
	row := i / gridColumns
	x := col*160 + 20
	if row%2 == 1 {
		x += 30
	}
	return Point{X: x, Y: row*120 + 20}
}

// Resolve kayıtlı konumu, masa hiç yerleştirilmediyse varsayılan ızgarayı döner.
func (s Size) Resolve(i, x, y int) Point {
	if x == 0 && y == 0 {
		d := DefaultPosition(i)
		return s.Clamp(float64(d.X), float64(d.Y))
	}
	return Point{X: x, Y: y}
}
