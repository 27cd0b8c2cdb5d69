package challenge

import (
	"encoding/binary"
	"math/rand/v2"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

// Seed выводит стабильное 128-битное зерно из ID модуля и номера вопроса.
func Seed(moduleID string, question int) [2]uint64 {
	sum := blake2b.Sum256([]byte(moduleID + "#" + strconv.Itoa(question)))
	return [2]uint64{
		binary.LittleEndian.Uint64(sum[0:8]),
		binary.LittleEndian.Uint64(sum[8:16]),
	}
}

// Permutation возвращает перестановку [0, n) Фишера-Йетса на генераторе PCG.
// perm[i] - исходный индекс варианта, показанного на позиции i.
// Одно и то же зерно всегда даёт одну и ту же перестановку.
func Permutation(n int, seed [2]uint64) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	rng := rand.New(rand.NewPCG(seed[0], seed[1]))
	for i := n - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}

// ShuffleOptions возвращает варианты в детерминированном порядке и перестановку.
func ShuffleOptions(moduleID string, question int, options []string) ([]string, []int) {
	perm := Permutation(len(options), Seed(moduleID, question))
	out := make([]string, len(options))
	for i, src := range perm {
		out[i] = options[src]
	}
	return out, perm
}
