package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"
)

// StateDigest hashes the complete authoritative state. Two sessions fed
// the same seed and request stream must produce identical digests at every
// turn boundary; replay verification and the determinism tests rely on it.
func (w *World) StateDigest(clip int64) string {
	h := sha256.New()
	var tmp [8]byte
	put := func(v int64) {
		binary.LittleEndian.PutUint64(tmp[:], uint64(v))
		h.Write(tmp[:])
	}
	put(clip)
	put(w.cfg.Seed)
	put(int64(w.nextActorNum))

	for _, lid := range w.sortedLevelIDs() {
		lv := w.levels[lid]
		put(int64(lid))
		put(int64(lv.Time))
		for _, t := range lv.Tiles {
			h.Write([]byte(t))
			h.Write([]byte{0})
		}
		smellPts := make([]Point, 0, len(lv.Smell))
		for p := range lv.Smell {
			smellPts = append(smellPts, p)
		}
		sortPoints(smellPts)
		for _, p := range smellPts {
			put(int64(p.X))
			put(int64(p.Y))
			put(int64(lv.Smell[p]))
		}
		groundPts := make([]Point, 0, len(lv.Ground))
		for p := range lv.Ground {
			groundPts = append(groundPts, p)
		}
		sortPoints(groundPts)
		for _, p := range groundPts {
			put(int64(p.X))
			put(int64(p.Y))
			for _, item := range sortedItemIDs(lv.Ground[p]) {
				h.Write([]byte(item))
				put(int64(lv.Ground[p][item]))
			}
		}
	}

	for _, id := range w.sortedActorIDs() {
		a := w.actors[id]
		h.Write([]byte(id))
		h.Write([]byte(a.Kind))
		h.Write([]byte(a.Faction))
		put(int64(a.Level))
		put(int64(a.Pos.X))
		put(int64(a.Pos.Y))
		put(int64(a.HP))
		put(int64(a.Calm))
		put(int64(a.NextTime))
		h.Write([]byte{boolByte(a.Braced), boolByte(a.Dying), boolByte(a.Projectile)})
		put(int64(len(a.Trajectory)))
		for _, v := range a.Trajectory {
			put(int64(v.DX))
			put(int64(v.DY))
		}
		h.Write([]byte(a.CarriedItem))
		for _, held := range []map[string]int{a.Pack, a.Equip, a.Organs} {
			put(int64(len(held)))
			for _, item := range sortedItemIDs(held) {
				h.Write([]byte(item))
				put(int64(held[item]))
			}
		}
	}

	for _, fid := range w.sortedFactionIDs() {
		f := w.factions[fid]
		h.Write([]byte(fid))
		h.Write([]byte(f.Leader))
		h.Write([]byte{boolByte(f.Gone), boolByte(f.Auto)})
		rels := make([]FactionID, 0, len(f.Relations))
		for other := range f.Relations {
			rels = append(rels, other)
		}
		sort.Slice(rels, func(i, j int) bool { return rels[i] < rels[j] })
		for _, other := range rels {
			h.Write([]byte(other))
			h.Write([]byte{byte(f.Relations[other])})
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}

func sortPoints(pts []Point) {
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].Y != pts[j].Y {
			return pts[i].Y < pts[j].Y
		}
		return pts[i].X < pts[j].X
	})
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
