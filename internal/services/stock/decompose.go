package stock

import (
	"math"
	"strconv"
	"strings"
)

// UnitCount is the number of unit loads a received quantity decomposes into:
// ceil(received/capacity) when both are positive, otherwise 0.
func UnitCount(receivedQty, unitCapacity int) int {
	if receivedQty <= 0 || unitCapacity <= 0 {
		return 0
	}
	return (receivedQty + unitCapacity - 1) / unitCapacity
}

// UnitQty is the quantity carried by the unit at index. Every unit is filled to
// capacity except the last, which takes the remainder.
func UnitQty(receivedQty, unitCapacity, index, count int) int {
	if count <= 0 || index < 0 || index >= count {
		return 0
	}
	if index < count-1 {
		return unitCapacity
	}
	rest := receivedQty - unitCapacity*(count-1)
	if rest < 0 {
		return 0
	}
	return rest
}

// UnitQuantities returns the quantity of every unit load for the line.
// The result always sums to receivedQty when capacity is positive.
func UnitQuantities(receivedQty, unitCapacity int) []int {
	count := UnitCount(receivedQty, unitCapacity)
	out := make([]int, count)
	for i := range out {
		out[i] = UnitQty(receivedQty, unitCapacity, i, count)
	}
	return out
}

// ParseCapacity reads a unit capacity from user input. Anything that is not a
// positive number is treated as 0.
func ParseCapacity(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if n > 0 {
			return n
		}
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 1 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}
