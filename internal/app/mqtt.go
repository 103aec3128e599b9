// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/oncore_monitor/internal/config"
)

// topicsFor maps update kinds to their configured topics.
func topicsFor(cfg *config.Config) map[string]string {
	return map[string]string{
		kindSnapshot:   cfg.TopicSnapshot,
		kindFix:        cfg.TopicFix,
		kindPosition:   cfg.TopicPosition,
		kindReceiverID: cfg.TopicReceiverID,
	}
}

func connectMQTT(broker, clientID string, log zerolog.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", broker, token.Error())
	}
	log.Info().Str("broker", broker).Str("client_id", clientID).Msg("connected to MQTT broker")
	return client, nil
}

// subscribeState feeds every configured topic into state.
func subscribeState(client mqtt.Client, topics map[string]string, state *monitorState, log zerolog.Logger) error {
	for kind, topic := range topics {
		kind, topic := kind, topic
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			if err := state.apply(kind, msg.Payload()); err != nil {
				log.Warn().Err(err).Str("topic", topic).Msg("payload unmarshal error")
			}
		})
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", topic, token.Error())
		}
		log.Info().Str("topic", topic).Msg("subscribed")
	}
	return nil
}

// publisher is the part of mqtt.Client the producer uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

func publishJSON(pub publisher, topic string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}
	token := pub.Publish(topic, 0, true, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}
