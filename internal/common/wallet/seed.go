// internal/common/wallet/seed.go
package wallet

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	apperrors "agentkit-workers/internal/common/errors"
)

// SeedEntry is the persisted seed of one wallet. Exactly one of Seed and Keystore is set.
type SeedEntry struct {
	Address   string          `json:"address"`
	Encrypted bool            `json:"encrypted"`
	Seed      string          `json:"seed,omitempty"`
	Keystore  json.RawMessage `json:"keystore,omitempty"`
}

// SeedFile maps wallet ids to their seeds.
type SeedFile map[string]SeedEntry

// SaveSeed writes the seed of w to path, keeping entries of other wallets. With encrypt
// set the key is stored as a scrypt keystore protected by passphrase.
func SaveSeed(path string, w *Wallet, encrypt bool, passphrase string) error {
	if w.key == nil {
		return apperrors.NewWalletSeedInvalidError(w.ID, errors.New("wallet has no key to save"))
	}

	entry := SeedEntry{Address: w.Address, Encrypted: encrypt}
	if encrypt {
		if passphrase == "" {
			return apperrors.NewConfigurationMissingError("cdp.seed_passphrase", "CDP_SEED_PASSPHRASE")
		}
		id, err := uuid.Parse(w.ID)
		if err != nil {
			id = uuid.New()
		}
		ks, err := keystore.EncryptKey(&keystore.Key{
			Id:         id,
			Address:    common.HexToAddress(w.Address),
			PrivateKey: w.key,
		}, passphrase, keystore.LightScryptN, keystore.LightScryptP)
		if err != nil {
			return apperrors.NewWalletSeedInvalidError(w.ID, err)
		}
		entry.Keystore = ks
	} else {
		entry.Seed = hex.EncodeToString(crypto.FromECDSA(w.key))
	}

	file, err := readSeedFile(path)
	if err != nil {
		return err
	}
	file[w.ID] = entry
	return writeSeedFile(path, file)
}

// LoadSeed reads the seed of w from path and attaches the key to w.
func LoadSeed(path string, w *Wallet, passphrase string) error {
	file, err := readSeedFile(path)
	if err != nil {
		return err
	}
	entry, ok := file[w.ID]
	if !ok {
		return apperrors.NewWalletSeedInvalidError(w.ID, fmt.Errorf("no seed for wallet in %s", path))
	}

	var key *keystore.Key
	if entry.Encrypted {
		if passphrase == "" {
			return apperrors.NewConfigurationMissingError("cdp.seed_passphrase", "CDP_SEED_PASSPHRASE")
		}
		key, err = keystore.DecryptKey(entry.Keystore, passphrase)
		if err != nil {
			return apperrors.NewWalletSeedInvalidError(w.ID, err)
		}
	} else {
		pk, err := crypto.HexToECDSA(strings.TrimPrefix(entry.Seed, "0x"))
		if err != nil {
			return apperrors.NewWalletSeedInvalidError(w.ID, err)
		}
		key = &keystore.Key{PrivateKey: pk, Address: crypto.PubkeyToAddress(pk.PublicKey)}
	}

	if w.Address != "" && !strings.EqualFold(key.Address.Hex(), w.Address) {
		return apperrors.NewWalletSeedInvalidError(w.ID,
			fmt.Errorf("seed address %s does not match wallet address %s", key.Address.Hex(), w.Address))
	}
	w.key = key.PrivateKey
	w.Address = key.Address.Hex()
	return nil
}

func readSeedFile(path string) (SeedFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return SeedFile{}, nil
	}
	if err != nil {
		return nil, apperrors.NewWalletSeedInvalidError("", fmt.Errorf("read %s: %w", path, err))
	}
	file := SeedFile{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return file, nil
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, apperrors.NewWalletSeedInvalidError("", fmt.Errorf("parse %s: %w", path, err))
	}
	return file, nil
}

func writeSeedFile(path string, file SeedFile) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return apperrors.NewWalletSeedInvalidError("", err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".seed-*")
	if err != nil {
		return apperrors.NewWalletSeedInvalidError("", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.NewWalletSeedInvalidError("", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return apperrors.NewWalletSeedInvalidError("", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewWalletSeedInvalidError("", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return apperrors.NewWalletSeedInvalidError("", err)
	}
	return nil
}
